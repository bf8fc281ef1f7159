// Package provision creates identities: for each new person, one account
// and one role profile committed atomically with a freshly minted business
// identifier. Nothing is persisted when any step inside the transaction
// fails.
package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	academicentity "github.com/campuskit/registrar/internal/academic/entity"
	"github.com/campuskit/registrar/internal/account"
	accountentity "github.com/campuskit/registrar/internal/account/entity"
	adminentity "github.com/campuskit/registrar/internal/admin/entity"
	facultyentity "github.com/campuskit/registrar/internal/faculty/entity"
	"github.com/campuskit/registrar/internal/identity"
	"github.com/campuskit/registrar/internal/metrics"
	studententity "github.com/campuskit/registrar/internal/student/entity"
	"github.com/campuskit/registrar/pkg/database"
	"github.com/campuskit/registrar/pkg/utilities"
)

var (
	ErrSemesterNotFound   = errors.New("admission semester not found")
	ErrDepartmentNotFound = errors.New("academic department not found")
	ErrInvalidInput       = errors.New("invalid provisioning input")
	ErrCreateFailed       = errors.New("failed to create account and profile")
)

// Allocator mints the next business identifier in a scope on the caller's
// transaction.
type Allocator interface {
	Next(ctx context.Context, ext sqlx.ExtContext, sc identity.Scope) (string, error)
}

// AccountStore persists the shared credential record.
type AccountStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, a *accountentity.Account) (int64, error)
}

// StudentStore persists the student profile side of a provisioned pair.
type StudentStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, s *studententity.Student) (int64, error)
	SetProfileImage(ctx context.Context, ref, url string) error
}

type FacultyStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, f *facultyentity.FacultyMember) (int64, error)
	SetProfileImage(ctx context.Context, ref, url string) error
}

type AdminStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, a *adminentity.Admin) (int64, error)
	SetProfileImage(ctx context.Context, ref, url string) error
}

// ReferenceData resolves academic reference rows checked before any write.
type ReferenceData interface {
	GetSemester(ctx context.Context, ref string) (*academicentity.Semester, error)
	GetDepartment(ctx context.Context, ref string) (*academicentity.Department, error)
}

// Uploader stores a profile image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
}

// Asset is an optional profile image attached to a provisioning request. It
// is uploaded only after the identity pair has committed, so a failed
// transaction never leaves an orphaned object behind.
type Asset struct {
	Body        io.Reader
	ContentType string
}

// Service is the transactional provisioner. All stores and the allocator
// run on the same transaction per call.
type Service struct {
	tx       database.Transactor
	alloc    Allocator
	accounts AccountStore
	students StudentStore
	faculty  FacultyStore
	admins   AdminStore
	refs     ReferenceData
	uploader Uploader
	hasher   account.PasswordHasher
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
}

func NewService(
	tx database.Transactor,
	alloc Allocator,
	accounts AccountStore,
	students StudentStore,
	faculty FacultyStore,
	admins AdminStore,
	refs ReferenceData,
	uploader Uploader,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
) *Service {
	return &Service{
		tx:       tx,
		alloc:    alloc,
		accounts: accounts,
		students: students,
		faculty:  faculty,
		admins:   admins,
		refs:     refs,
		uploader: uploader,
		hasher:   account.BcryptHasher{Cost: 12},
		metrics:  m,
		logger:   logger,
	}
}

// newAccount builds the credential side of a pair. An omitted password
// falls back to the deployment default and flags the account for a forced
// password change on first login.
func (s *Service) newAccount(password, publicID, email string, role accountentity.Role) (*accountentity.Account, error) {
	needChange := password == ""
	if needChange {
		password = account.DefaultPassword()
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &accountentity.Account{
		Ref:                utilities.NewRecordRef(),
		PublicID:           publicID,
		Email:              email,
		PasswordHash:       hash,
		Role:               role,
		Status:             accountentity.StatusInProgress,
		NeedPasswordChange: needChange,
	}, nil
}

// CreateStudent provisions a student identity. The admission semester
// supplies the identifier scope; the academic faculty is denormalized from
// the department.
func (s *Service) CreateStudent(ctx context.Context, password string, st *studententity.Student, asset *Asset) (*studententity.Student, error) {
	start := time.Now()
	if st == nil || st.Email == "" || st.Name.FirstName == "" || st.Name.LastName == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}

	sem, err := s.refs.GetSemester(ctx, st.AdmissionSemesterRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSemesterNotFound
		}
		return nil, err
	}
	dep, err := s.refs.GetDepartment(ctx, st.AcademicDepartmentRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	st.AcademicFacultyRef = dep.FacultyRef

	err = s.tx.Transact(ctx, func(ext sqlx.ExtContext) error {
		publicID, err := s.alloc.Next(ctx, ext, identity.StudentScope(sem.Year, sem.Code))
		if err != nil {
			return err
		}
		acct, err := s.newAccount(password, publicID, st.Email, accountentity.RoleStudent)
		if err != nil {
			return err
		}
		rows, err := s.accounts.Create(ctx, ext, acct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		if rows == 0 {
			return ErrCreateFailed
		}
		st.Ref = utilities.NewRecordRef()
		st.PublicID = publicID
		st.AccountRef = acct.Ref
		rows, err = s.students.Create(ctx, ext, st)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		if rows == 0 {
			return ErrCreateFailed
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrementProvision("student", "failed")
		return nil, err
	}

	s.attachImage(ctx, asset, st.PublicID, st.Name.FirstName, st.Ref, s.students.SetProfileImage, &st.ProfileImage)
	s.metrics.IncrementProvision("student", "created")
	s.metrics.ObserveProvisionLatency(time.Since(start))
	s.logger.Infow("student provisioned", "id", st.PublicID, "ref", st.Ref, "semester", sem.Ref)
	return st, nil
}

// CreateFaculty provisions a teaching-staff identity with a globally scoped
// identifier.
func (s *Service) CreateFaculty(ctx context.Context, password string, f *facultyentity.FacultyMember, asset *Asset) (*facultyentity.FacultyMember, error) {
	start := time.Now()
	if f == nil || f.Email == "" || f.Name.FirstName == "" || f.Name.LastName == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}

	dep, err := s.refs.GetDepartment(ctx, f.AcademicDepartmentRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	f.AcademicFacultyRef = dep.FacultyRef

	err = s.tx.Transact(ctx, func(ext sqlx.ExtContext) error {
		publicID, err := s.alloc.Next(ctx, ext, identity.FacultyScope())
		if err != nil {
			return err
		}
		acct, err := s.newAccount(password, publicID, f.Email, accountentity.RoleFaculty)
		if err != nil {
			return err
		}
		rows, err := s.accounts.Create(ctx, ext, acct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		if rows == 0 {
			return ErrCreateFailed
		}
		f.Ref = utilities.NewRecordRef()
		f.PublicID = publicID
		f.AccountRef = acct.Ref
		rows, err = s.faculty.Create(ctx, ext, f)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		if rows == 0 {
			return ErrCreateFailed
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrementProvision("faculty", "failed")
		return nil, err
	}

	s.attachImage(ctx, asset, f.PublicID, f.Name.FirstName, f.Ref, s.faculty.SetProfileImage, &f.ProfileImage)
	s.metrics.IncrementProvision("faculty", "created")
	s.metrics.ObserveProvisionLatency(time.Since(start))
	s.logger.Infow("faculty member provisioned", "id", f.PublicID, "ref", f.Ref)
	return f, nil
}

// CreateAdmin provisions an administrative identity. Admins carry no
// academic affiliation, so no reference checks run.
func (s *Service) CreateAdmin(ctx context.Context, password string, a *adminentity.Admin, asset *Asset) (*adminentity.Admin, error) {
	start := time.Now()
	if a == nil || a.Email == "" || a.Name.FirstName == "" || a.Name.LastName == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}

	err := s.tx.Transact(ctx, func(ext sqlx.ExtContext) error {
		publicID, err := s.alloc.Next(ctx, ext, identity.AdminScope())
		if err != nil {
			return err
		}
		acct, err := s.newAccount(password, publicID, a.Email, accountentity.RoleAdmin)
		if err != nil {
			return err
		}
		rows, err := s.accounts.Create(ctx, ext, acct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		if rows == 0 {
			return ErrCreateFailed
		}
		a.Ref = utilities.NewRecordRef()
		a.PublicID = publicID
		a.AccountRef = acct.Ref
		rows, err = s.admins.Create(ctx, ext, a)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		if rows == 0 {
			return ErrCreateFailed
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrementProvision("admin", "failed")
		return nil, err
	}

	s.attachImage(ctx, asset, a.PublicID, a.Name.FirstName, a.Ref, s.admins.SetProfileImage, &a.ProfileImage)
	s.metrics.IncrementProvision("admin", "created")
	s.metrics.ObserveProvisionLatency(time.Since(start))
	s.logger.Infow("admin provisioned", "id", a.PublicID, "ref", a.Ref)
	return a, nil
}

// attachImage runs after commit. An upload or patch failure is logged and
// swallowed so a provisioned identity is never lost over its picture.
func (s *Service) attachImage(ctx context.Context, asset *Asset, publicID, firstName, ref string, set func(context.Context, string, string) error, dst *string) {
	if asset == nil || asset.Body == nil || s.uploader == nil {
		return
	}
	url, err := s.uploader.Upload(ctx, publicID+firstName, asset.Body, asset.ContentType)
	if err != nil {
		s.logger.Warnw("profile image upload", "id", publicID, "err", err)
		return
	}
	if err := set(ctx, ref, url); err != nil {
		s.logger.Warnw("profile image attach", "id", publicID, "err", err)
		return
	}
	*dst = url
}
