package provision

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	adminentity "github.com/campuskit/registrar/internal/admin/entity"
	facultyentity "github.com/campuskit/registrar/internal/faculty/entity"
	studententity "github.com/campuskit/registrar/internal/student/entity"
	"github.com/campuskit/registrar/pkg/httpx"
)

const maxUploadBytes = 10 << 20

// Handler exposes the provisioning endpoints. Each accepts either a plain
// JSON body or a multipart form with a "data" JSON part and an optional
// "file" image part.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// decodeBody extracts the JSON payload and the optional image from the
// request. The multipart file handle is closed by the caller via cleanup.
func decodeBody(r *http.Request, dst any) (*Asset, func(), error) {
	noop := func() {}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return nil, noop, json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, noop, err
	}
	data := r.FormValue("data")
	if data == "" {
		return nil, noop, errors.New("missing data part")
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return nil, noop, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	asset := &Asset{Body: io.LimitReader(file, maxUploadBytes), ContentType: header.Header.Get("Content-Type")}
	return asset, func() { file.Close() }, nil
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string                 `json:"password"`
		Student  *studententity.Student `json:"student"`
	}
	asset, cleanup, err := decodeBody(r, &req)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	defer cleanup()
	if req.Student == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	st, err := h.svc.CreateStudent(r.Context(), req.Password, req.Student, asset)
	if err != nil {
		h.writeProvisionError(w, err, "student")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, st)
}

func (h *Handler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string                       `json:"password"`
		Faculty  *facultyentity.FacultyMember `json:"faculty"`
	}
	asset, cleanup, err := decodeBody(r, &req)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	defer cleanup()
	if req.Faculty == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	f, err := h.svc.CreateFaculty(r.Context(), req.Password, req.Faculty, asset)
	if err != nil {
		h.writeProvisionError(w, err, "faculty member")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string             `json:"password"`
		Admin    *adminentity.Admin `json:"admin"`
	}
	asset, cleanup, err := decodeBody(r, &req)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	defer cleanup()
	if req.Admin == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	a, err := h.svc.CreateAdmin(r.Context(), req.Password, req.Admin, asset)
	if err != nil {
		h.writeProvisionError(w, err, "admin")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) writeProvisionError(w http.ResponseWriter, err error, kind string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSemesterNotFound), errors.Is(err, ErrDepartmentNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCreateFailed):
		h.logger.Errorw("provision "+kind, "err", err)
		httpx.WriteError(w, http.StatusBadRequest, ErrCreateFailed.Error())
	default:
		h.logger.Errorw("provision "+kind, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create "+kind)
	}
}
