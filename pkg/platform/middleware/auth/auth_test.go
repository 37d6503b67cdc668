package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) { return v.claims, v.err }

type stubRevocations struct {
	revoked bool
	err     error
}

func (r stubRevocations) IsTokenRevoked(context.Context, string) (bool, error) { return r.revoked, r.err }

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func serve(mw func(http.Handler) http.Handler, header string) (*httptest.ResponseRecorder, id.AccountID) {
	var seen id.AccountID
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.AccountID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/me/profile", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, seen
}

func TestRequireAuth(t *testing.T) {
	accountID := id.NewAccountID()
	valid := stubValidator{claims: &JWTClaims{AccountID: accountID, SessionID: id.NewSessionID(), JTI: "jti-1"}}

	t.Run("valid token populates the account", func(t *testing.T) {
		w, seen := serve(RequireAuth(valid, stubRevocations{}, logger), "Bearer good")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, accountID, seen)
	})

	t.Run("missing header", func(t *testing.T) {
		w, _ := serve(RequireAuth(valid, nil, logger), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		bad := stubValidator{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")}
		w, _ := serve(RequireAuth(bad, nil, logger), "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		w, _ := serve(RequireAuth(valid, stubRevocations{revoked: true}, logger), "Bearer good")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token has been revoked")
	})

	t.Run("revocation lookup failure", func(t *testing.T) {
		w, _ := serve(RequireAuth(valid, stubRevocations{err: errors.New("redis down")}, logger), "Bearer good")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("token without jti when revocation is enforced", func(t *testing.T) {
		noJTI := stubValidator{claims: &JWTClaims{AccountID: accountID}}
		w, _ := serve(RequireAuth(noJTI, stubRevocations{}, logger), "Bearer good")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	accountID := id.NewAccountID()
	valid := stubValidator{claims: &JWTClaims{AccountID: accountID, JTI: "jti-1"}}

	t.Run("anonymous request passes through", func(t *testing.T) {
		w, seen := serve(OptionalAuth(valid, nil, logger), "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, seen.IsNil())
	})

	t.Run("bad token degrades to anonymous", func(t *testing.T) {
		bad := stubValidator{err: dErrors.New(dErrors.CodeUnauthorized, "token has expired")}
		w, seen := serve(OptionalAuth(bad, nil, logger), "Bearer expired")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, seen.IsNil())
	})

	t.Run("valid token identifies the viewer", func(t *testing.T) {
		_, seen := serve(OptionalAuth(valid, stubRevocations{}, logger), "Bearer good")
		assert.Equal(t, accountID, seen)
	})
}
