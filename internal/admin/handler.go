package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/admin/entity"
	"github.com/campuskit/registrar/internal/patch"
	"github.com/campuskit/registrar/pkg/httpx"
)

// Handler exposes HTTP endpoints for admin profiles.
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
		h.logger.Errorw("list admins", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list admins")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "admin not found")
			return
		}
		h.logger.Errorw("get admin", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get admin")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin *entity.AdminUpdate `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Admin == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	a, err := h.svc.Update(r.Context(), chi.URLParam(r, "ref"), req.Admin)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "admin not found")
		case errors.Is(err, patch.ErrNoFields):
			httpx.WriteError(w, http.StatusBadRequest, "no updatable fields")
		default:
			h.logger.Errorw("update admin", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to update admin")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "admin not found")
			return
		}
		h.logger.Errorw("delete admin", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to delete admin")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
