package chat

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/middleware"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
	chatService "github.com/zhouzirui/gamebot/backend/internal/service/chat"
	"github.com/zhouzirui/gamebot/backend/pkg/utils"
)

// Service is the game session service used by the handler.
type Service interface {
	CreateSession(ctx context.Context, userID, promptName string) (*chat.Session, error)
	DeleteSession(ctx context.Context, userID string) error
	History(ctx context.Context, userID string) (chat.History, error)
	Chat(ctx context.Context, userID string, content *string, vars map[string]any) (*chatService.Reply, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc Service, logger *zap.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes mounts the game routes. Every route expects claims placed in
// the context by middleware.RequireUser.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/new", h.handleCreateSession)
	r.Post("/chat", h.handleChat)
	r.Get("/chat", h.handleHistory)
	r.Delete("/chat", h.handleDeleteSession)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload struct {
		PromptName string `json:"prompt_name"`
	}
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	if _, err := h.chatSvc.CreateSession(r.Context(), claims.ID, payload.PromptName); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Session created successfully"})
}

// handleChat 进行一轮对话，请求体可以为空
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload struct {
		Content *string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload, true); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	vars := map[string]any{"name": claims.Name}
	reply, err := h.chatSvc.Chat(r.Context(), claims.ID, payload.Content, vars)
	if err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	history, err := h.chatSvc.History(r.Context(), claims.ID)
	if err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.chatSvc.DeleteSession(r.Context(), claims.ID); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}
