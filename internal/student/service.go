package student

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
	"github.com/campuskit/registrar/internal/listquery"
	"github.com/campuskit/registrar/internal/metrics"
	"github.com/campuskit/registrar/internal/patch"
	"github.com/campuskit/registrar/internal/student/entity"
	studentrepo "github.com/campuskit/registrar/internal/student/repo"
	"github.com/campuskit/registrar/pkg/database"
)

// Fields maps the exposed student field names to their columns. One map
// drives list search/filter/sort/projection and partial-update column
// resolution, so the two paths can never disagree.
var Fields = map[string]string{
	"ref":                     "ref",
	"id":                      "public_id",
	"user":                    "account_ref",
	"firstName":               "first_name",
	"middleName":              "middle_name",
	"lastName":                "last_name",
	"gender":                  "gender",
	"dateOfBirth":             "date_of_birth",
	"email":                   "email",
	"contactNo":               "contact_no",
	"emergencyContactNo":      "emergency_contact_no",
	"bloodGroup":              "blood_group",
	"presentAddress":          "present_address",
	"permanentAddress":        "permanent_address",
	"fatherName":              "father_name",
	"fatherOccupation":        "father_occupation",
	"fatherContactNo":         "father_contact_no",
	"motherName":              "mother_name",
	"motherOccupation":        "mother_occupation",
	"motherContactNo":         "mother_contact_no",
	"localGuardianName":       "local_guardian_name",
	"localGuardianOccupation": "local_guardian_occupation",
	"localGuardianContactNo":  "local_guardian_contact_no",
	"localGuardianAddress":    "local_guardian_address",
	"admissionSemester":       "admission_semester_ref",
	"academicDepartment":      "academic_department_ref",
	"academicFaculty":         "academic_faculty_ref",
	"profileImage":            "profile_image",
	"createdAt":               "created_at",
	"updatedAt":               "updated_at",
}

// SearchableFields are the fields searchTerm matches against.
var SearchableFields = []string{
	"email", "id", "contactNo", "emergencyContactNo", "firstName", "lastName", "presentAddress",
}

var (
	ErrNotFound     = errors.New("student not found")
	ErrDeleteFailed = errors.New("failed to delete student")
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

// Service carries the student profile read/update/delete operations.
// Creation belongs to the provision package.
type Service struct {
	db       *sqlx.DB
	repo     *studentrepo.Repo
	profiles profileDeleter
	accounts accountDeleter
	tx       database.Transactor
	cache    *cache.ProfileCache
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
}

func NewService(db *sqlx.DB, pc *cache.ProfileCache, m *metrics.Metrics, logger *zap.SugaredLogger) *Service {
	repo := studentrepo.NewRepo(db)
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

// Repo exposes the underlying store for provisioning wiring.
func (s *Service) Repo() *studentrepo.Repo { return s.repo }

// List shapes the request parameters into a paginated student listing.
func (s *Service) List(ctx context.Context, params map[string]string) (*listquery.Envelope, error) {
	start := time.Now()
	qb := listquery.New("students", Fields, params).
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
	s.metrics.ObserveListLatency("students", time.Since(start))
	return &listquery.Envelope{Meta: qb.Meta(total), Result: result}, nil
}

func (s *Service) Get(ctx context.Context, ref string) (*entity.Student, error) {
	st, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// Update applies a partial update. Nested sub-objects are flattened into
// per-column assignments so siblings of an omitted field keep their value.
func (s *Service) Update(ctx context.Context, ref string, in *entity.StudentUpdate) (*entity.Student, error) {
	set := patch.Set{}
	if n := in.Name; n != nil {
		set.AddString("firstName", n.FirstName)
		set.AddString("middleName", n.MiddleName)
		set.AddString("lastName", n.LastName)
	}
	if g := in.Guardian; g != nil {
		set.AddString("fatherName", g.FatherName)
		set.AddString("fatherOccupation", g.FatherOccupation)
		set.AddString("fatherContactNo", g.FatherContactNo)
		set.AddString("motherName", g.MotherName)
		set.AddString("motherOccupation", g.MotherOccupation)
		set.AddString("motherContactNo", g.MotherContactNo)
	}
	if lg := in.LocalGuardian; lg != nil {
		set.AddString("localGuardianName", lg.Name)
		set.AddString("localGuardianOccupation", lg.Occupation)
		set.AddString("localGuardianContactNo", lg.ContactNo)
		set.AddString("localGuardianAddress", lg.Address)
	}
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
	st, err := s.repo.UpdateColumns(ctx, ref, clause, args)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, st.PublicID)
	return st, nil
}

// Delete soft-deletes the profile and its account as one transaction; a
// failing account update rolls the profile flag back.
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
	s.logger.Infow("student soft-deleted", "ref", ref, "id", publicID)
	return nil
}
