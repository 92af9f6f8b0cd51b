package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/JonMunkholm/equipreport/internal/logging"
)

// WithRequestMetadata tags ctx with the client address and User-Agent for
// service-side logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithSource(ctx, core.Source{
		Channel:   "http",
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// ownerID returns the identity attached by the Owner middleware.
func ownerID(r *http.Request) string {
	return logging.OwnerFromContext(r.Context())
}

// clientIP strips the port from r.RemoteAddr, which TrustedRealIP has
// already rewritten for proxied requests.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
