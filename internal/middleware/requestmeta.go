package middleware

import (
	"context"
	"regexp"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jaevor/go-nanoid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_\-.]{1,64}$`)

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for logging and audit events.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// WithRequestMeta returns a middleware that assigns every request an id and records
// client metadata in the request context. A well-formed incoming X-Request-ID is kept.
// The id is echoed in the response.
func WithRequestMeta(clientIP ClientKeyFunc) (func(ctx huma.Context, next func(huma.Context)), error) {
	newID, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		id := ctx.Header(HeaderRequestID)
		if !validRequestID.MatchString(id) {
			id = newID()
		}

		ctx.SetHeader(HeaderRequestID, id)

		meta := RequestMeta{
			RequestID: id,
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
		}

		next(huma.WithContext(ctx, ContextWithRequestMeta(ctx.Context(), meta)))
	}, nil
}
