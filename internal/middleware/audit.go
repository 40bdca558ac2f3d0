package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuditMiddleware writes one access-trail entry per request on a clinical record.
type AuditMiddleware struct {
	logger zerolog.Logger
}

func NewAuditMiddleware(logger zerolog.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.With().Str("component", "audit").Logger()}
}

// AuditLog records who touched which record and how. Only identifiers are
// logged, never record content.
func (m *AuditMiddleware) AuditLog(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := auditAction(c)

		event := m.logger.Info()
		if c.Writer.Status() >= http.StatusBadRequest {
			event = m.logger.Warn()
		}
		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("user_id", c.GetString(ContextUserID)).
			Str("entity_type", entityType).
			Str("entity_id", c.Param("id")).
			Str("action", action).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Msg("audit")
	}
}

func auditAction(c *gin.Context) string {
	switch c.Request.Method {
	case http.MethodPost:
		if c.Param("id") != "" {
			return "generate"
		}
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		if c.Param("id") == "" {
			return "list"
		}
		return "read"
	}
}
