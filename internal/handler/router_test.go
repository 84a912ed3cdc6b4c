package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/config"
	"github.com/zhouzirui/gamebot/backend/internal/service/auth"
	chatservice "github.com/zhouzirui/gamebot/backend/internal/service/chat"
	promptservice "github.com/zhouzirui/gamebot/backend/internal/service/prompt"
	"github.com/zhouzirui/gamebot/backend/internal/storage/memory"
)

type staticCompleter string

func (c staticCompleter) Complete(context.Context, []*schema.Message) (string, error) {
	return string(c), nil
}

type RouterSuite struct {
	suite.Suite
	router http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	cfg := &config.Config{
		Server: config.ServerConfig{CORSOrigins: "*"},
		Auth: config.AuthConfig{
			JWTSecret:     "secret",
			TokenTTL:      time.Hour,
			AdminUsername: "admin",
			AdminPassword: "pw",
		},
	}
	logger := zap.NewNop()
	prompts := memory.NewPromptStore()

	s.router = NewRouter(cfg, Services{
		Auth:    auth.NewService(memory.NewUserStore(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger),
		Prompts: promptservice.NewService(prompts, logger),
		Chat:    chatservice.NewService(memory.NewSessionStore(), prompts, staticCompleter("Hi {{ name }}"), logger),
	}, logger)
}

type request struct {
	method, path string
	body         string
	admin        bool
	token        string
}

func (s *RouterSuite) do(req request) *httptest.ResponseRecorder {
	r := httptest.NewRequest(req.method, req.path, bytes.NewBufferString(req.body))
	r.Header.Set("Content-Type", "application/json")
	if req.admin {
		r.SetBasicAuth("admin", "pw")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	return rec
}

func (s *RouterSuite) login(name string) string {
	s.Require().Equal(http.StatusOK, s.do(request{method: http.MethodPost, path: "/register", body: `{"name":"` + name + `","password":"pw1"}`}).Code)

	rec := s.do(request{method: http.MethodPost, path: "/login", body: `{"name":"` + name + `","password":"pw1"}`})
	s.Require().Equal(http.StatusOK, rec.Code)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	s.Require().NotEmpty(out.AccessToken)
	return out.AccessToken
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(request{method: http.MethodGet, path: "/health"})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *RouterSuite) TestMetrics() {
	rec := s.do(request{method: http.MethodGet, path: "/metrics"})
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "go_goroutines")
}

func (s *RouterSuite) TestRegisterAndLogin() {
	s.login("ada")

	rec := s.do(request{method: http.MethodPost, path: "/register", body: `{"name":"ada","password":"x"}`})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/login", body: `{"name":"ada","password":"wrong"}`})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/login", body: `{"name":"nobody","password":"pw1"}`})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestPromptAdminRoutes() {
	body := `{"name":"dungeon","prompt":"You guide {{ name }}.","first_user_message":"Begin"}`

	s.Equal(http.StatusUnauthorized, s.do(request{method: http.MethodPost, path: "/prompt", body: body}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodPost, path: "/prompt", body: body, admin: true}).Code)
	s.Equal(http.StatusBadRequest, s.do(request{method: http.MethodPost, path: "/prompt", body: body, admin: true}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodPost, path: "/prompt", body: `{"name":"castle","prompt":"c"}`, admin: true}).Code)

	rec := s.do(request{method: http.MethodGet, path: "/prompt/dungeon"})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"name":"dungeon","prompt":"You guide {{ name }}.","first_user_message":"Begin"}`, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/prompt"})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[{"name":"dungeon"},{"name":"castle"}]`, rec.Body.String())

	s.Equal(http.StatusUnauthorized, s.do(request{method: http.MethodPatch, path: "/prompt/dungeon", body: `{"prompt":"x"}`}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodPatch, path: "/prompt/dungeon", body: `{"prompt":"New text"}`, admin: true}).Code)
	s.Equal(http.StatusNotFound, s.do(request{method: http.MethodPatch, path: "/prompt/missing", body: `{"prompt":"x"}`, admin: true}).Code)

	rec = s.do(request{method: http.MethodGet, path: "/prompt/dungeon"})
	s.JSONEq(`{"name":"dungeon","prompt":"New text","first_user_message":"Begin"}`, rec.Body.String())

	s.Equal(http.StatusUnauthorized, s.do(request{method: http.MethodDelete, path: "/prompt/dungeon"}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodDelete, path: "/prompt/dungeon", admin: true}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodDelete, path: "/prompt/dungeon", admin: true}).Code)
	s.Equal(http.StatusNotFound, s.do(request{method: http.MethodGet, path: "/prompt/dungeon"}).Code)
}

func (s *RouterSuite) TestPromptListEmpty() {
	rec := s.do(request{method: http.MethodGet, path: "/prompt"})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *RouterSuite) TestChatRequiresToken() {
	s.Equal(http.StatusUnauthorized, s.do(request{method: http.MethodGet, path: "/chat"}).Code)
	s.Equal(http.StatusUnauthorized, s.do(request{method: http.MethodPost, path: "/chat", token: "forged"}).Code)
}

func (s *RouterSuite) TestGameFlow() {
	s.Require().Equal(http.StatusOK, s.do(request{method: http.MethodPost, path: "/prompt", body: `{"name":"dungeon","prompt":"You guide {{ name }}."}`, admin: true}).Code)
	token := s.login("ada")

	s.Equal(http.StatusNotFound, s.do(request{method: http.MethodPost, path: "/chat/new", body: `{"prompt_name":"castle"}`, token: token}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodPost, path: "/chat/new", body: `{"prompt_name":"dungeon"}`, token: token}).Code)

	rec := s.do(request{method: http.MethodPost, path: "/chat", body: `{"content":"hello"}`, token: token})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"message":"Hi {{ name }}","selections":[],"audio":null,"image":null}`, rec.Body.String())

	// a deleted prompt degrades to its name on reads
	s.Require().Equal(http.StatusOK, s.do(request{method: http.MethodDelete, path: "/prompt/dungeon", admin: true}).Code)
	rec = s.do(request{method: http.MethodGet, path: "/chat", token: token})
	s.Require().Equal(http.StatusOK, rec.Code)

	var history map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &history))
	s.Equal("dungeon", history["prompt"])
	s.Len(history["messages"], 2)

	s.Equal(http.StatusBadRequest, s.do(request{method: http.MethodPost, path: "/chat", token: token}).Code)
	s.Equal(http.StatusOK, s.do(request{method: http.MethodDelete, path: "/chat", token: token}).Code)
}

func TestCORSHeaders(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{CORSOrigins: "*"}}
	logger := zap.NewNop()
	prompts := memory.NewPromptStore()
	router := NewRouter(cfg, Services{
		Auth:    auth.NewService(memory.NewUserStore(), "s", time.Hour, logger),
		Prompts: promptservice.NewService(prompts, logger),
		Chat:    chatservice.NewService(memory.NewSessionStore(), prompts, staticCompleter(""), logger),
	}, logger)

	req := httptest.NewRequest(http.MethodGet, "/prompt", nil)
	req.Header.Set("Origin", "https://play.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
