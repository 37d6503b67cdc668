package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/httputil"
	"viewergate/pkg/platform/middleware/request"
	"viewergate/pkg/requestcontext"
)

// JWTValidator defines the interface for validating session tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	AccountID id.AccountID
	SessionID id.SessionID
	JTI       string // JWT ID for revocation tracking
	ExpiresAt time.Time
}

type contextKeyClaims struct{}

// GetClaims returns the validated claims of the current request, if any.
func GetClaims(ctx context.Context) (*JWTClaims, bool) {
	c, ok := ctx.Value(contextKeyClaims{}).(*JWTClaims)
	return c, ok
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return strings.TrimSpace(token), ok && strings.TrimSpace(token) != ""
}

// authenticate validates the bearer token and checks revocation. The returned
// error is already suitable for the client.
func authenticate(ctx context.Context, token string, validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) (*JWTClaims, error) {
	requestID := request.GetRequestID(ctx)
	claims, err := validator.ValidateToken(token)
	if err != nil {
		logger.WarnContext(ctx, "unauthorized access - invalid token",
			"error", err,
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
	}
	if revocationChecker == nil {
		return claims, nil
	}
	if claims.JTI == "" {
		logger.WarnContext(ctx, "unauthorized access - missing token jti",
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
	}
	revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.JTI)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check token revocation",
			"error", err,
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "Failed to validate token")
	}
	if revoked {
		logger.WarnContext(ctx, "unauthorized access - token revoked",
			"jti", claims.JTI,
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Token has been revoked")
	}
	return claims, nil
}

func withClaims(ctx context.Context, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, contextKeyClaims{}, claims)
	ctx = requestcontext.WithAccountID(ctx, claims.AccountID)
	return requestcontext.WithSessionID(ctx, claims.SessionID)
}

func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}
			claims, err := authenticate(ctx, token, validator, revocationChecker, logger)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(ctx, claims)))
		})
	}
}

// OptionalAuth attaches the viewer's identity when a valid token is present
// and otherwise serves the request anonymously.
func OptionalAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := authenticate(r.Context(), token, validator, revocationChecker, logger)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}
