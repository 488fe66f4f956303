package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestObserver is notified of every served request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// AccessLog returns a middleware that logs every request once it was served.
// Server errors are logged at error level, client errors at warn, the rest at info.
func AccessLog(logger *zap.Logger, observer RequestObserver) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		elapsed := time.Since(start)
		status := ctx.Status()
		route := operationPath(ctx)

		if observer != nil {
			observer.ObserveRequest(ctx.Method(), route, status, elapsed)
		}

		level := zapcore.InfoLevel

		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		u := ctx.URL()
		meta := RequestMetaFromContext(ctx.Context())

		logger.Log(level, "request",
			zap.String("method", ctx.Method()),
			zap.String("path", u.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("request_id", meta.RequestID),
			zap.String("client_ip", meta.ClientIP),
		)
	}
}
