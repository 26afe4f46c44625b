package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/pkg/utils"
)

// Logging emits one structured log entry per request.
func Logging(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithFields(logrus.Fields{
					"request_id": RequestIDFromContext(c),
					"panic":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
				}).Error("Recovered from panic")
				utils.ErrorResponse(c, http.StatusInternalServerError, utils.CodeInternal, "unexpected server error")
			}
		}()
		c.Next()
	}
}
