package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/api/handler"
	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
)

type stubDeadlines struct {
	service.DeadlineService
	setName string
}

func (s *stubDeadlines) Set(_ context.Context, name string, req *dto.SetDeadlineRequest, _ string) (*dto.DeadlineResponse, error) {
	s.setName = name
	return &dto.DeadlineResponse{Name: name, Deadline: req.Deadline, IsOpen: true}, nil
}

func (s *stubDeadlines) List(context.Context) ([]dto.DeadlineResponse, error) {
	return []dto.DeadlineResponse{}, nil
}

type testServer struct {
	engine    *gin.Engine
	jwt       *jwt.Manager
	deadlines *stubDeadlines
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "router-test-secret"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTLDefault = time.Hour
	cfg.Server.CORS.AllowOrigins = []string{"http://localhost:5173"}

	deadlines := &stubDeadlines{}
	svc := &service.Service{Deadline: deadlines}
	mgr := jwt.NewManager(&cfg.Auth)

	engine := Setup(cfg, handler.NewHandler(cfg, svc), Deps{
		JWT:    mgr,
		Logger: zap.NewNop(),
	})
	return &testServer{engine: engine, jwt: mgr, deadlines: deadlines}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(jwt.Subject{UserID: "u-" + role, Role: role})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoutes_Authorization(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, model.RoleAdmin)
	lecturer := s.token(t, model.RoleLecturer)
	student := s.token(t, model.RoleStudent)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     string
		wantCode int
	}{
		{name: "users need a token", method: "GET", path: "/api/v1/users", wantCode: http.StatusUnauthorized},
		{name: "users are admin only", method: "GET", path: "/api/v1/users", token: lecturer, wantCode: http.StatusForbidden},
		{name: "imports are admin only", method: "POST", path: "/api/v1/imports/papers", token: lecturer, wantCode: http.StatusForbidden},
		{name: "students cannot reach tp", method: "GET", path: "/api/v1/tp/letters", token: student, wantCode: http.StatusForbidden},
		{name: "students cannot set deadlines", method: "PUT", path: "/api/v1/deadlines/cat1", token: student, body: `{"deadline":"2026-11-01T00:00:00Z"}`, wantCode: http.StatusForbidden},
		{name: "unknown deadline", method: "PUT", path: "/api/v1/deadlines/lunch", token: admin, body: `{"deadline":"2026-11-01T00:00:00Z"}`, wantCode: http.StatusNotFound},
		{name: "deadline set", method: "PUT", path: "/api/v1/deadlines/cat1", token: admin, body: `{"deadline":"2026-11-01T00:00:00Z"}`, wantCode: http.StatusOK},
		{name: "everyone reads deadlines", method: "GET", path: "/api/v1/deadlines", token: student, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, model.DeadlineCat1, s.deadlines.setName)
}

func TestValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type validatedInput struct {
		Sex string `binding:"sex"`
		Cat string `binding:"cat_selector"`
	}
	tests := []struct {
		name string
		in   validatedInput
		ok   bool
	}{
		{name: "valid", in: validatedInput{Sex: "female", Cat: model.Cat2}, ok: true},
		{name: "short sex", in: validatedInput{Sex: "m", Cat: model.Cat1}, ok: true},
		{name: "bad sex", in: validatedInput{Sex: "x", Cat: model.Cat1}, ok: false},
		{name: "bad cat", in: validatedInput{Sex: "F", Cat: "cat3"}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
