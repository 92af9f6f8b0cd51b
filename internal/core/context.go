package core

import (
	"context"

	"github.com/JonMunkholm/equipreport/internal/logging"
)

type contextKey string

const ctxKeySource contextKey = "request_source"

// Source describes where an operation came from, for log correlation.
type Source struct {
	Channel   string // "http" or "cli"
	IPAddress string
	UserAgent string
}

// ContextWithSource attaches src to ctx.
func ContextWithSource(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, ctxKeySource, src)
}

// SourceFromContext returns the Source attached to ctx, if any.
func SourceFromContext(ctx context.Context) (Source, bool) {
	src, ok := ctx.Value(ctxKeySource).(Source)
	return src, ok
}

// sourceAttrs flattens the context Source into slog key/value pairs.
func sourceAttrs(ctx context.Context) []any {
	src, ok := SourceFromContext(ctx)
	if !ok {
		return nil
	}
	attrs := []any{"channel", src.Channel}
	if src.IPAddress != "" {
		attrs = append(attrs, "client_ip", src.IPAddress)
	}
	if src.UserAgent != "" {
		attrs = append(attrs, "user_agent", src.UserAgent)
	}
	return attrs
}

// ownerContext tags ctx with ownerID for logging unless the transport
// already did.
func ownerContext(ctx context.Context, ownerID string) context.Context {
	if logging.OwnerFromContext(ctx) == ownerID {
		return ctx
	}
	return logging.WithOwner(ctx, ownerID)
}
