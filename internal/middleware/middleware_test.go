package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/anamnese-api/internal/model"
	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthenticator struct {
	tokens map[string]*model.User
}

func (m *mockAuthenticator) RequireAuthenticated(_ context.Context, token string) (*model.User, error) {
	if user, ok := m.tokens[token]; ok {
		return user, nil
	}
	return nil, apperrors.Unauthorized(nil)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSessionTokenPrefersCookie(t *testing.T) {
	engine := gin.New()
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionToken(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", serve(engine, req).Body.String())

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", serve(engine, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, serve(engine, req).Body.String())
}

func TestRequireAuth(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "helena@clinica.com"}
	auth := &mockAuthenticator{tokens: map[string]*model.User{"tok": user}}

	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/me", RequireAuth(auth), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Email+"|"+c.GetString(ContextUserID))
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := serve(engine, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "not authenticated", body["message"])
	assert.NotEmpty(t, body["request_id"])

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	w = serve(engine, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "helena@clinica.com|"+user.ID.String(), w.Body.String())
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, IdleTTL: time.Minute})

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	engine := gin.New()
	engine.Use(rl.RateLimit())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	w := serve(engine, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example"}

	engine := gin.New()
	engine.Use(CORS(cfg))
	engine.POST("/api/anamneses", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/anamneses", nil)
	req.Header.Set("Origin", "https://app.example")
	w := serve(engine, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Session-ID")

	req = httptest.NewRequest(http.MethodOptions, "/api/anamneses", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(engine, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeoutRespondsWhenNothingWritten(t *testing.T) {
	engine := gin.New()
	engine.Use(Timeout(TimeoutConfig{Duration: 10 * time.Millisecond}))
	engine.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	engine.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeoutSkipsConfiguredRoutes(t *testing.T) {
	engine := gin.New()
	engine.Use(Timeout(TimeoutConfig{Duration: time.Millisecond, Skip: []string{"/long"}}))
	engine.GET("/long", func(c *gin.Context) {
		_, hasDeadline := c.Request.Context().Deadline()
		c.String(http.StatusOK, "%t", hasDeadline)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/long", nil))
	assert.Equal(t, "false", w.Body.String())
}

func TestSizeLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 8, MaxHeaderSize: 1 << 10}))
	engine.POST("/", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0"))
	req.Header.Set("X-Padding", strings.Repeat("a", 2048))
	w = serve(engine, req)
	assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	engine := gin.New()
	engine.Use(SecurityHeaders(DefaultSecurityConfig()))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Internal server error"`)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestLoggerAndAuditNeverLogBodies(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	engine := gin.New()
	engine.Use(RequestID(), Logger(logger))
	anamneses := engine.Group("/api/anamneses", func(c *gin.Context) {
		c.Set(ContextUserID, "user-1")
		c.Next()
	}, NewAuditMiddleware(logger).AuditLog("anamnese"))
	anamneses.POST("", func(c *gin.Context) { c.Status(http.StatusOK) })
	anamneses.DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodPost, "/api/anamneses",
		strings.NewReader(`{"identificacao":{"nome_completo":"Maria Aparecida Souza"}}`)))
	serve(engine, httptest.NewRequest(http.MethodDelete, "/api/anamneses/abc", nil))

	out := buf.String()
	assert.NotContains(t, out, "Maria")
	assert.Contains(t, out, `"action":"create"`)
	assert.Contains(t, out, `"action":"delete"`)
	assert.Contains(t, out, `"entity_id":"abc"`)
	assert.Contains(t, out, `"user_id":"user-1"`)
	assert.Contains(t, out, `"route":"/api/anamneses/:id"`)
}

func TestCompressJSONOnly(t *testing.T) {
	engine := gin.New()
	engine.Use(Compress(DefaultCompressConfig()))
	engine.GET("/json", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"resumo_clinico": strings.Repeat("tosse ", 100)}) })
	engine.GET("/pdf", func(c *gin.Context) { c.Data(http.StatusOK, "application/pdf", []byte("%PDF-1.3")) })

	req := httptest.NewRequest(http.MethodGet, "/json", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := serve(engine, req)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), `"resumo_clinico":"tosse tosse`)

	req = httptest.NewRequest(http.MethodGet, "/pdf", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = serve(engine, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/json", nil))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}
