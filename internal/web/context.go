package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/bizdesk/internal/core"
	"github.com/JonMunkholm/bizdesk/internal/web/middleware"
)

// importContext returns the request context with the client IP set, for
// import runs that outlive the request.
func importContext(r *http.Request) context.Context {
	ctx := r.Context()
	if core.GetIPAddressFromContext(ctx) == "" {
		ctx = core.ContextWithIPAddress(ctx, middleware.ClientIP(r))
	}
	return ctx
}

// defaultUserID is the user bound to client rows without a user column: the
// explicit value when given, else the caller.
func defaultUserID(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if u, ok := core.UserFromContext(ctx); ok {
		return u.ID.String()
	}
	return ""
}
