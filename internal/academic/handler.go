package academic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/pkg/httpx"
)

// Handler exposes HTTP endpoints for academic reference data.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func queryParams(r *http.Request) map[string]string {
	params := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

func (h *Handler) CreateSemester(w http.ResponseWriter, r *http.Request) {
	var in SemesterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	sem, err := h.svc.CreateSemester(r.Context(), &in)
	if err != nil {
		h.writeCreateError(w, err, "semester")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sem)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var in DepartmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	dep, err := h.svc.CreateDepartment(r.Context(), &in)
	if err != nil {
		h.writeCreateError(w, err, "department")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dep)
}

func (h *Handler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var in FacultyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	fac, err := h.svc.CreateFaculty(r.Context(), &in)
	if err != nil {
		h.writeCreateError(w, err, "faculty")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, fac)
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error, kind string) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrSemesterMismatch):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "academic faculty not found")
	default:
		h.logger.Errorw("create "+kind, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create "+kind)
	}
}

func (h *Handler) ListSemesters(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.ListSemesters(r.Context(), queryParams(r))
	if err != nil {
		h.logger.Errorw("list semesters", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list semesters")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.ListDepartments(r.Context(), queryParams(r))
	if err != nil {
		h.logger.Errorw("list departments", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list departments")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) ListFaculties(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.ListFaculties(r.Context(), queryParams(r))
	if err != nil {
		h.logger.Errorw("list faculties", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list faculties")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) GetSemester(w http.ResponseWriter, r *http.Request) {
	sem, err := h.svc.GetSemester(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "semester not found")
			return
		}
		h.logger.Errorw("get semester", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get semester")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sem)
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	dep, err := h.svc.GetDepartment(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "department not found")
			return
		}
		h.logger.Errorw("get department", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get department")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dep)
}

func (h *Handler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	fac, err := h.svc.GetFaculty(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "faculty not found")
			return
		}
		h.logger.Errorw("get faculty", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get faculty")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, fac)
}
