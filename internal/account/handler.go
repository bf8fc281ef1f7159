package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/account/entity"
	"github.com/campuskit/registrar/internal/auth"
	"github.com/campuskit/registrar/pkg/httpx"
)

// Handler exposes HTTP endpoints for account lifecycle operations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Me returns the caller's own profile, resolved from token claims. A missing
// profile yields an empty body rather than an error.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "missing token claims")
		return
	}
	view, err := h.svc.Me(r.Context(), claims.UserID, entity.Role(claims.Role))
	if err != nil {
		h.logger.Errorw("self lookup", "id", claims.UserID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to resolve profile")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status entity.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	acct, err := h.svc.ChangeStatus(r.Context(), chi.URLParam(r, "ref"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "account not found")
		default:
			h.logger.Errorw("change status", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to change status")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, acct)
}
