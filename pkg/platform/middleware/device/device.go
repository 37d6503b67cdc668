// Package device labels the viewer's client for audit records.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"viewergate/pkg/requestcontext"
)

const unknownDevice = "Unknown Device"

// Label turns a User-Agent header into a short display name such as
// "Chrome on Mac OS X".
func Label(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	label := strings.TrimSpace(browser + " on " + os)
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}

// Middleware stores the device label on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), Label(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
