package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

const (
	HeaderRole      = "X-DEMO-ROLE"
	HeaderRequestID = "X-Request-ID"

	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// requestID echoes a caller-supplied X-Request-ID or assigns a fresh one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// requireRole rejects requests without a valid X-DEMO-ROLE header.
func requireRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := domain.ParseRole(c.GetHeader(HeaderRole))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Kind:   string(domain.KindAuthentication),
				Detail: "Missing or invalid " + HeaderRole + " header",
			})
			return
		}
		c.Set(ctxRole, role)
		c.Next()
	}
}

func roleFrom(c *gin.Context) domain.Role {
	role, _ := c.Get(ctxRole)
	r, _ := role.(domain.Role)
	return r
}
