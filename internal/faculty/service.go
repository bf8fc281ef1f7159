package faculty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	accountrepo "github.com/campuskit/registrar/internal/account/repo"
	"github.com/campuskit/registrar/internal/cache"
	"github.com/campuskit/registrar/internal/faculty/entity"
	facultyrepo "github.com/campuskit/registrar/internal/faculty/repo"
	"github.com/campuskit/registrar/internal/listquery"
	"github.com/campuskit/registrar/internal/metrics"
	"github.com/campuskit/registrar/internal/patch"
	"github.com/campuskit/registrar/pkg/database"
)

var Fields = map[string]string{
	"ref":                "ref",
	"id":                 "public_id",
	"user":               "account_ref",
	"firstName":          "first_name",
	"middleName":         "middle_name",
	"lastName":           "last_name",
	"designation":        "designation",
	"gender":             "gender",
	"dateOfBirth":        "date_of_birth",
	"email":              "email",
	"contactNo":          "contact_no",
	"emergencyContactNo": "emergency_contact_no",
	"bloodGroup":         "blood_group",
	"presentAddress":     "present_address",
	"permanentAddress":   "permanent_address",
	"academicDepartment": "academic_department_ref",
	"academicFaculty":    "academic_faculty_ref",
	"profileImage":       "profile_image",
	"createdAt":          "created_at",
	"updatedAt":          "updated_at",
}

var SearchableFields = []string{"email", "id", "contactNo", "firstName", "lastName", "designation"}

var (
	ErrNotFound     = errors.New("faculty member not found")
	ErrDeleteFailed = errors.New("failed to delete faculty member")
)

// profileDeleter flips the profile's soft-delete flag on the caller's
// transaction, returning the owning account ref and the business id.
type profileDeleter interface {
	SetDeleted(ctx context.Context, ext sqlx.ExtContext, ref string, deleted bool) (string, string, error)
}

// accountDeleter is the slice of the accounts repo the paired delete needs.
type accountDeleter interface {
	SetDeleted(ctx context.Context, ext sqlx.ExtContext, ref string, deleted bool) (int64, error)
}

// Service carries the faculty profile read/update/delete operations.
type Service struct {
	db       *sqlx.DB
	repo     *facultyrepo.Repo
	profiles profileDeleter
	accounts accountDeleter
	tx       database.Transactor
	cache    *cache.ProfileCache
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
}

func NewService(db *sqlx.DB, pc *cache.ProfileCache, m *metrics.Metrics, logger *zap.SugaredLogger) *Service {
	repo := facultyrepo.NewRepo(db)
	return &Service{
		db:       db,
		repo:     repo,
		profiles: repo,
		accounts: accountrepo.NewRepo(db),
		tx:       database.NewTxRunner(db),
		cache:    pc,
		metrics:  m,
		logger:   logger,
	}
}

func (s *Service) Repo() *facultyrepo.Repo { return s.repo }

func (s *Service) List(ctx context.Context, params map[string]string) (*listquery.Envelope, error) {
	start := time.Now()
	qb := listquery.New("faculty_members", Fields, params).
		Where("is_deleted = false").
		Search(SearchableFields...).
		Filter().
		Sort().
		Paginate().
		Fields("ref", "id")
	total, err := qb.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}
	result, err := qb.Select(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveListLatency("faculty_members", time.Since(start))
	return &listquery.Envelope{Meta: qb.Meta(total), Result: result}, nil
}

func (s *Service) Get(ctx context.Context, ref string) (*entity.FacultyMember, error) {
	f, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *Service) Update(ctx context.Context, ref string, in *entity.FacultyUpdate) (*entity.FacultyMember, error) {
	set := patch.Set{}
	if n := in.Name; n != nil {
		set.AddString("firstName", n.FirstName)
		set.AddString("middleName", n.MiddleName)
		set.AddString("lastName", n.LastName)
	}
	set.AddString("designation", in.Designation)
	set.AddString("gender", in.Gender)
	set.AddString("dateOfBirth", in.DateOfBirth)
	set.AddString("contactNo", in.ContactNo)
	set.AddString("emergencyContactNo", in.EmergencyContactNo)
	set.AddString("bloodGroup", in.BloodGroup)
	set.AddString("presentAddress", in.PresentAddress)
	set.AddString("permanentAddress", in.PermanentAddress)
	set.AddString("profileImage", in.ProfileImage)

	clause, args, err := set.Build(Fields, 2)
	if err != nil {
		return nil, err
	}
	f, err := s.repo.UpdateColumns(ctx, ref, clause, args)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, f.PublicID)
	return f, nil
}

func (s *Service) Delete(ctx context.Context, ref string) error {
	var publicID string
	err := s.tx.Transact(ctx, func(ext sqlx.ExtContext) error {
		accountRef, pid, err := s.profiles.SetDeleted(ctx, ext, ref, true)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
		}
		publicID = pid
		rows, err := s.accounts.SetDeleted(ctx, ext, accountRef, true)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: account missing", ErrDeleteFailed)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, publicID)
	s.logger.Infow("faculty member soft-deleted", "ref", ref, "id", publicID)
	return nil
}
