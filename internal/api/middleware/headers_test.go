package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/api/handler"
)

// ── RequestID ──

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "uuid kept", header: "0b6d3c1e-7f52-4d0a-9d8e-3f1c2a4b5c6d", keep: true},
		{name: "proxy token kept", header: "edge_01.abc", keep: true},
		{name: "missing", header: ""},
		{name: "too long", header: string(make([]byte, requestIDMaxLen+1))},
		{name: "newline injection", header: "abc\nlevel=error"},
		{name: "spaces", header: "abc def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var seen string
			r.Use(RequestID())
			r.GET("/p", func(c *gin.Context) {
				seen = RequestIDFrom(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/p", nil)
			if tt.header != "" {
				req.Header["X-Request-Id"] = []string{tt.header}
			}
			w := do(r, req)

			assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
				assert.Len(t, seen, 36, "a fresh uuid replaces it")
			}
		})
	}
}

// ── CORS ──

func corsEngine() *gin.Engine {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowOrigins: []string{"https://results.kise.ac.ke/"},
		MaxAge:       2 * time.Hour,
	}))
	r.GET("/api/v1/results", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS_Preflight(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		wantStatus int
		wantAllow  string
		wantMaxAge string
	}{
		{name: "allowed origin", origin: "https://results.kise.ac.ke", wantStatus: http.StatusNoContent, wantAllow: "https://results.kise.ac.ke", wantMaxAge: "7200"},
		{name: "unknown origin", origin: "https://evil.example", wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/results", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "GET")
			w := do(corsEngine(), req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMaxAge, w.Header().Get("Access-Control-Max-Age"))
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
		})
	}
}

func TestCORS_SimpleRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	req.Header.Set("Origin", "https://results.kise.ac.ke")
	w := do(corsEngine(), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"), "only preflights list methods")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = do(corsEngine(), req)
	assert.Equal(t, http.StatusOK, w.Code, "the browser enforces CORS on simple requests")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// ── SecurityHeaders ──

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, httptest.NewRequest("GET", "/p", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain http gets no HSTS")

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = do(r, req)
	assert.Equal(t, hstsValue, w.Header().Get("Strict-Transport-Security"))
}

// ── Logger ──

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/letters/:id", func(c *gin.Context) {
		c.Set(handler.CtxUserID, "u1")
		c.Set(handler.CtxRole, "lecturer")
		c.Status(http.StatusNotFound)
	})

	do(r, httptest.NewRequest("GET", "/health", nil))
	do(r, httptest.NewRequest("GET", "/api/v1/letters/abc-123", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "health check", entries[0].Message)

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	fields := entries[1].ContextMap()
	assert.Equal(t, "/api/v1/letters/:id", fields["route"])
	assert.Equal(t, "/api/v1/letters/abc-123", fields["path"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "lecturer", fields["role"])
	assert.NotEmpty(t, fields["request_id"])
}
