package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/config"
	"github.com/zhouzirui/gamebot/backend/internal/handler/chat"
	"github.com/zhouzirui/gamebot/backend/internal/handler/prompt"
	"github.com/zhouzirui/gamebot/backend/internal/handler/user"
	"github.com/zhouzirui/gamebot/backend/internal/middleware"
	"github.com/zhouzirui/gamebot/backend/pkg/utils"
)

// AuthService registers users, issues tokens and validates them.
type AuthService interface {
	user.AuthService
	middleware.TokenParser
}

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth    AuthService
	Prompts prompt.Service
	Chat    chat.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg *config.Config, svc Services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	handlerLogger := logger.Named("handler")

	user.New(svc.Auth, handlerLogger).RegisterRoutes(r)

	prompt.New(svc.Prompts, handlerLogger).
		RegisterRoutes(r, middleware.AdminOnly(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(svc.Auth))
		chat.New(svc.Chat, handlerLogger).RegisterRoutes(r)
	})

	return r
}
