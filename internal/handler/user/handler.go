package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/pkg/utils"
)

// AuthService is the part of the auth service the handler needs.
type AuthService interface {
	Register(ctx context.Context, name, password string) error
	Login(ctx context.Context, name, password string) (string, error)
}

// Handler 用户注册与登录
type Handler struct {
	auth   AuthService
	logger *zap.Logger
}

func New(auth AuthService, logger *zap.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// RegisterRoutes 注册用户相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	if err := h.auth.Register(r.Context(), payload.Name, payload.Password); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	token, err := h.auth.Login(r.Context(), payload.Name, payload.Password)
	if err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"access_token": token})
}
