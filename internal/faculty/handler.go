package faculty

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/faculty/entity"
	"github.com/campuskit/registrar/internal/patch"
	"github.com/campuskit/registrar/pkg/httpx"
)

// Handler exposes HTTP endpoints for faculty profiles.
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
		h.logger.Errorw("list faculty", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list faculty members")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "faculty member not found")
			return
		}
		h.logger.Errorw("get faculty", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get faculty member")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Faculty *entity.FacultyUpdate `json:"faculty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Faculty == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	f, err := h.svc.Update(r.Context(), chi.URLParam(r, "ref"), req.Faculty)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "faculty member not found")
		case errors.Is(err, patch.ErrNoFields):
			httpx.WriteError(w, http.StatusBadRequest, "no updatable fields")
		default:
			h.logger.Errorw("update faculty", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to update faculty member")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "faculty member not found")
			return
		}
		h.logger.Errorw("delete faculty", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to delete faculty member")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
