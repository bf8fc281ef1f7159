package student

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/patch"
	"github.com/campuskit/registrar/internal/student/entity"
	"github.com/campuskit/registrar/pkg/httpx"
)

// Handler exposes HTTP endpoints for student profiles.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	env, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.logger.Errorw("list students", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "student not found")
			return
		}
		h.logger.Errorw("get student", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Student *entity.StudentUpdate `json:"student"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Student == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	st, err := h.svc.Update(r.Context(), chi.URLParam(r, "ref"), req.Student)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "student not found")
		case errors.Is(err, patch.ErrNoFields):
			httpx.WriteError(w, http.StatusBadRequest, "no updatable fields")
		default:
			h.logger.Errorw("update student", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to update student")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "student not found")
			return
		}
		h.logger.Errorw("delete student", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
