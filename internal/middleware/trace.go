package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Trace opens a server span per request. Spans are dropped unless the
// process installs a tracer provider.
func Trace(name string) gin.HandlerFunc {
	tracer := otel.Tracer(name)

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.request_id", c.Writer.Header().Get(requestIDHeader)),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if p, ok := CurrentPrincipal(c); ok {
			span.SetAttributes(attribute.String("enduser.role", string(p.Role)))
		}
		if err := c.Errors.Last(); err != nil {
			span.RecordError(err.Err)
		}
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
