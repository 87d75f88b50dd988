package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collectionsync/internal/pkg/logger"
)

const traceHeader = "X-Trace-Id"

// AttachTraceID puts a trace id on the request context so every log
// line of the request carries it. An incoming X-Trace-Id is reused,
// otherwise a fresh one is generated and echoed back.
func AttachTraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Writer.Header().Set(traceHeader, traceID)

		c.Next()
	}
}
