package prompt

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
	"github.com/zhouzirui/gamebot/backend/pkg/utils"
)

// Service is the prompt catalogue used by the handler.
type Service interface {
	Create(ctx context.Context, p prompt.Prompt) (*prompt.Prompt, error)
	Get(ctx context.Context, name string) (*prompt.Prompt, error)
	List(ctx context.Context) ([]prompt.Summary, error)
	Update(ctx context.Context, name string, upd prompt.Update) (*prompt.Prompt, error)
	Delete(ctx context.Context, name string) error
}

// Handler prompt管理的HTTP处理器
type Handler struct {
	prompts Service
	logger  *zap.Logger
}

func New(prompts Service, logger *zap.Logger) *Handler {
	return &Handler{prompts: prompts, logger: logger}
}

// RegisterRoutes mounts the prompt routes. Reads are public, writes go
// through admin.
func (h *Handler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/prompt", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{name}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.handleCreate)
			r.Patch("/{name}", h.handleUpdate)
			r.Delete("/{name}", h.handleDelete)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload prompt.Prompt
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	if _, err := h.prompts.Create(r.Context(), payload); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Prompt added successfully"})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.prompts.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.prompts.List(r.Context())
	if err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var upd prompt.Update
	if err := utils.DecodeJSON(r, &upd, false); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	if _, err := h.prompts.Update(r.Context(), chi.URLParam(r, "name"), upd); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Prompt updated successfully"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.prompts.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		utils.RespondAppError(w, h.logger, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Prompt deleted successfully"})
}
