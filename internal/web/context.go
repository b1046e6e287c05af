package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/trialstats/internal/core"
)

// withClientIP tags ctx with the request's client IP for upload history.
func withClientIP(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClientIP(ctx, clientIP(r))
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already rewritten for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
