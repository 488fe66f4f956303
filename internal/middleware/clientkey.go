package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// ClientKeyFunc derives the identity a client is rate limited under.
type ClientKeyFunc func(ctx huma.Context) string

// RemoteAddrKey identifies clients by the IP of the network peer.
func RemoteAddrKey(ctx huma.Context) string {
	return remoteIP(ctx)
}

// ProxyAwareKey identifies clients by the first X-Forwarded-For entry, then X-Real-IP,
// then the network peer. Use it only behind a proxy that overwrites these headers.
func ProxyAwareKey(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(ctx.Header("X-Real-IP")); xri != "" {
		return xri
	}

	return remoteIP(ctx)
}

// HeaderKey identifies clients by the value of header, such as an API key,
// and falls back to fallback when the header is absent.
func HeaderKey(header string, fallback ClientKeyFunc) ClientKeyFunc {
	return func(ctx huma.Context) string {
		if v := ctx.Header(header); v != "" {
			return "key:" + v
		}

		return fallback(ctx)
	}
}

func remoteIP(ctx huma.Context) string {
	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
