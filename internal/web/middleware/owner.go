package middleware

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/equipreport/internal/logging"
)

// MaxOwnerIDLength bounds the identity accepted from the owner header.
const MaxOwnerIDLength = 256

// Owner copies the owner identity from header into the request context.
// The header is set by the upstream authentication layer; this middleware
// only forwards it. Requests without it pass through untagged.
func Owner(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := strings.TrimSpace(r.Header.Get(header)); id != "" && len(id) <= MaxOwnerIDLength {
				r = r.WithContext(logging.WithOwner(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner rejects requests that Owner did not tag.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.OwnerFromContext(r.Context()) == "" {
			logging.FromContext(r.Context()).Warn("auth: missing owner identity", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "AUTH_MISSING_OWNER", "missing owner identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}
