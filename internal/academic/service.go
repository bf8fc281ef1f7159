package academic

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/academic/entity"
	academicrepo "github.com/campuskit/registrar/internal/academic/repo"
	"github.com/campuskit/registrar/internal/listquery"
	"github.com/campuskit/registrar/internal/metrics"
	"github.com/campuskit/registrar/pkg/utilities"
)

var SemesterFields = map[string]string{
	"ref":        "ref",
	"name":       "name",
	"year":       "year",
	"code":       "code",
	"startMonth": "start_month",
	"endMonth":   "end_month",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

var DepartmentFields = map[string]string{
	"ref":             "ref",
	"name":            "name",
	"academicFaculty": "academic_faculty_ref",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
}

var FacultyFields = map[string]string{
	"ref":       "ref",
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// semesterCodes maps each semester name to its fixed period code.
var semesterCodes = map[string]string{
	"Autumn": "01",
	"Summer": "02",
	"Fall":   "03",
}

var (
	ErrNotFound         = errors.New("academic record not found")
	ErrSemesterMismatch = errors.New("semester name does not match code")
)

type SemesterInput struct {
	Name       string `json:"name" validate:"required,oneof=Autumn Summer Fall"`
	Year       string `json:"year" validate:"required,len=4,numeric"`
	Code       string `json:"code" validate:"required,oneof=01 02 03"`
	StartMonth string `json:"startMonth" validate:"required"`
	EndMonth   string `json:"endMonth" validate:"required"`
}

type DepartmentInput struct {
	Name            string `json:"name" validate:"required"`
	AcademicFaculty string `json:"academicFaculty" validate:"required"`
}

type FacultyInput struct {
	Name string `json:"name" validate:"required"`
}

// Service carries the academic reference-data operations.
type Service struct {
	db       *sqlx.DB
	repo     *academicrepo.Repo
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
}

func NewService(db *sqlx.DB, m *metrics.Metrics, logger *zap.SugaredLogger) *Service {
	return &Service{
		db:       db,
		repo:     academicrepo.NewRepo(db),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
		logger:   logger,
	}
}

func (s *Service) Repo() *academicrepo.Repo { return s.repo }

func (s *Service) CreateSemester(ctx context.Context, in *SemesterInput) (*entity.Semester, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if semesterCodes[in.Name] != in.Code {
		return nil, ErrSemesterMismatch
	}
	sem := &entity.Semester{
		Ref:        utilities.NewKSUID(),
		Name:       in.Name,
		Year:       in.Year,
		Code:       in.Code,
		StartMonth: in.StartMonth,
		EndMonth:   in.EndMonth,
	}
	if err := s.repo.CreateSemester(ctx, sem); err != nil {
		return nil, err
	}
	s.logger.Infow("semester created", "ref", sem.Ref, "year", sem.Year, "code", sem.Code)
	return sem, nil
}

func (s *Service) CreateDepartment(ctx context.Context, in *DepartmentInput) (*entity.Department, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetFaculty(ctx, in.AcademicFaculty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dep := &entity.Department{
		Ref:        utilities.NewKSUID(),
		Name:       in.Name,
		FacultyRef: in.AcademicFaculty,
	}
	if err := s.repo.CreateDepartment(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *Service) CreateFaculty(ctx context.Context, in *FacultyInput) (*entity.Faculty, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	fac := &entity.Faculty{
		Ref:  utilities.NewKSUID(),
		Name: in.Name,
	}
	if err := s.repo.CreateFaculty(ctx, fac); err != nil {
		return nil, err
	}
	return fac, nil
}

func (s *Service) ListSemesters(ctx context.Context, params map[string]string) (*listquery.Envelope, error) {
	return s.list(ctx, "academic_semesters", SemesterFields, params, "name", "year", "code")
}

func (s *Service) ListDepartments(ctx context.Context, params map[string]string) (*listquery.Envelope, error) {
	return s.list(ctx, "academic_departments", DepartmentFields, params, "name")
}

func (s *Service) ListFaculties(ctx context.Context, params map[string]string) (*listquery.Envelope, error) {
	return s.list(ctx, "academic_faculties", FacultyFields, params, "name")
}

func (s *Service) list(ctx context.Context, table string, fields map[string]string, params map[string]string, searchable ...string) (*listquery.Envelope, error) {
	start := time.Now()
	qb := listquery.New(table, fields, params).
		Search(searchable...).
		Filter().
		Sort().
		Paginate().
		Fields("ref")
	total, err := qb.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}
	result, err := qb.Select(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveListLatency(table, time.Since(start))
	return &listquery.Envelope{Meta: qb.Meta(total), Result: result}, nil
}

func (s *Service) GetSemester(ctx context.Context, ref string) (*entity.Semester, error) {
	sem, err := s.repo.GetSemester(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sem, err
}

func (s *Service) GetDepartment(ctx context.Context, ref string) (*entity.Department, error) {
	dep, err := s.repo.GetDepartment(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return dep, err
}

func (s *Service) GetFaculty(ctx context.Context, ref string) (*entity.Faculty, error) {
	fac, err := s.repo.GetFaculty(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return fac, err
}
