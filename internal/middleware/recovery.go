package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/response"
)

// Recovery turns a panic in a handler into the internal error envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.Stack("stack"),
				)
				env := response.Internal(fmt.Sprintf("unexpected error, request id %s", GetRequestID(c)))
				c.AbortWithStatusJSON(env.Status, env.Body)
			}
		}()
		c.Next()
	}
}
