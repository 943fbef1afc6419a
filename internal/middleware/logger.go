package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/industria/api/internal/logger"
)

const (
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey = "logger"
	// SubjectKey is the context key for the authenticated token subject
	SubjectKey = "auth_subject"
)

// Logger creates a middleware that logs HTTP requests using structured logging.
// The request-scoped logger is stored in the context for handlers.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       routeOf(c),
			"status":      statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if subject := c.GetString(SubjectKey); subject != "" {
			fields["subject"] = subject
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case statusCode >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(LoggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}

// LoggerOr returns the request logger, falling back to fallback.
func LoggerOr(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if l := GetLogger(c); l != nil {
		return l
	}
	return fallback
}

// routeOf returns the matched route template, which keeps path parameters
// out of log and metric labels.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
