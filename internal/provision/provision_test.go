package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	academicentity "github.com/campuskit/registrar/internal/academic/entity"
	accountentity "github.com/campuskit/registrar/internal/account/entity"
	adminentity "github.com/campuskit/registrar/internal/admin/entity"
	facultyentity "github.com/campuskit/registrar/internal/faculty/entity"
	"github.com/campuskit/registrar/internal/identity"
	studententity "github.com/campuskit/registrar/internal/student/entity"
)

// fakeTx invokes the unit of work directly; a returned error stands in for
// a rollback, so fakes must only observe writes when fn succeeds end to end.
type fakeTx struct {
	calls  int
	failed bool
}

func (f *fakeTx) Transact(_ context.Context, fn func(ext sqlx.ExtContext) error) error {
	f.calls++
	if err := fn(nil); err != nil {
		f.failed = true
		return err
	}
	return nil
}

type fakeAlloc struct {
	next   map[string]int64
	calls  []identity.Scope
	failOn string
}

func (f *fakeAlloc) Next(_ context.Context, _ sqlx.ExtContext, sc identity.Scope) (string, error) {
	if f.failOn == sc.Key {
		return "", errors.New("allocator down")
	}
	if f.next == nil {
		f.next = map[string]int64{}
	}
	f.next[sc.Key]++
	f.calls = append(f.calls, sc)
	return sc.Encode(f.next[sc.Key]), nil
}

type fakeAccounts struct {
	created []*accountentity.Account
	rows    int64
	err     error
}

func (f *fakeAccounts) Create(_ context.Context, _ sqlx.ExtContext, a *accountentity.Account) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, a)
	return f.rows, nil
}

type fakeStudents struct {
	created []*studententity.Student
	images  map[string]string
	rows    int64
}

func (f *fakeStudents) Create(_ context.Context, _ sqlx.ExtContext, s *studententity.Student) (int64, error) {
	f.created = append(f.created, s)
	return f.rows, nil
}

func (f *fakeStudents) SetProfileImage(_ context.Context, ref, url string) error {
	if f.images == nil {
		f.images = map[string]string{}
	}
	f.images[ref] = url
	return nil
}

type fakeFaculty struct {
	created []*facultyentity.FacultyMember
	rows    int64
}

func (f *fakeFaculty) Create(_ context.Context, _ sqlx.ExtContext, m *facultyentity.FacultyMember) (int64, error) {
	f.created = append(f.created, m)
	return f.rows, nil
}

func (f *fakeFaculty) SetProfileImage(context.Context, string, string) error { return nil }

type fakeAdmins struct {
	created []*adminentity.Admin
	rows    int64
}

func (f *fakeAdmins) Create(_ context.Context, _ sqlx.ExtContext, a *adminentity.Admin) (int64, error) {
	f.created = append(f.created, a)
	return f.rows, nil
}

func (f *fakeAdmins) SetProfileImage(context.Context, string, string) error { return nil }

type fakeRefs struct {
	semesters   map[string]*academicentity.Semester
	departments map[string]*academicentity.Department
}

func (f *fakeRefs) GetSemester(_ context.Context, ref string) (*academicentity.Semester, error) {
	if s, ok := f.semesters[ref]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRefs) GetDepartment(_ context.Context, ref string) (*academicentity.Department, error) {
	if d, ok := f.departments[ref]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type fakeUploader struct {
	names []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, name string, _ io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "https://cdn.example.com/" + name, nil
}

type fixture struct {
	tx       *fakeTx
	alloc    *fakeAlloc
	accounts *fakeAccounts
	students *fakeStudents
	faculty  *fakeFaculty
	admins   *fakeAdmins
	refs     *fakeRefs
	uploader *fakeUploader
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tx:       &fakeTx{},
		alloc:    &fakeAlloc{},
		accounts: &fakeAccounts{rows: 1},
		students: &fakeStudents{rows: 1},
		faculty:  &fakeFaculty{rows: 1},
		admins:   &fakeAdmins{rows: 1},
		refs: &fakeRefs{
			semesters: map[string]*academicentity.Semester{
				"sem-1": {Ref: "sem-1", Year: "2024", Code: "01"},
			},
			departments: map[string]*academicentity.Department{
				"dep-1": {Ref: "dep-1", FacultyRef: "fac-1"},
			},
		},
		uploader: &fakeUploader{},
	}
	f.svc = NewService(f.tx, f.alloc, f.accounts, f.students, f.faculty, f.admins, f.refs, f.uploader, nil, zap.NewNop().Sugar())
	return f
}

func newStudent() *studententity.Student {
	return &studententity.Student{
		Name:                  studententity.Name{FirstName: "Ada", LastName: "Lovelace"},
		Email:                 "ada@example.com",
		AdmissionSemesterRef:  "sem-1",
		AcademicDepartmentRef: "dep-1",
	}
}

func TestCreateStudent_PairCommitted(t *testing.T) {
	f := newFixture(t)

	st, err := f.svc.CreateStudent(context.Background(), "", newStudent(), nil)
	require.NoError(t, err)

	assert.Equal(t, "2024010001", st.PublicID)
	assert.Equal(t, "fac-1", st.AcademicFacultyRef, "faculty denormalized from department")
	assert.NotEmpty(t, st.Ref)

	require.Len(t, f.accounts.created, 1)
	acct := f.accounts.created[0]
	assert.Equal(t, st.PublicID, acct.PublicID, "account and profile share the identifier")
	assert.Equal(t, st.AccountRef, acct.Ref)
	assert.Equal(t, accountentity.RoleStudent, acct.Role)
	assert.Equal(t, accountentity.StatusInProgress, acct.Status)
	assert.True(t, acct.NeedPasswordChange, "omitted password forces a change")
	assert.NotEmpty(t, acct.PasswordHash)

	require.Len(t, f.students.created, 1)
	assert.Equal(t, 1, f.tx.calls)
}

func TestCreateStudent_SuppliedPasswordKept(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateStudent(context.Background(), "s3cret-pass", newStudent(), nil)
	require.NoError(t, err)

	acct := f.accounts.created[0]
	assert.False(t, acct.NeedPasswordChange)
	assert.NotEqual(t, "s3cret-pass", acct.PasswordHash)
}

func TestCreateStudent_SequentialIdentifiers(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 3; i++ {
		st, err := f.svc.CreateStudent(context.Background(), "", newStudent(), nil)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("20240100%02d", i), st.PublicID)
	}
}

func TestCreateStudent_UnknownSemester_NoWrites(t *testing.T) {
	f := newFixture(t)
	st := newStudent()
	st.AdmissionSemesterRef = "missing"

	_, err := f.svc.CreateStudent(context.Background(), "", st, nil)
	assert.ErrorIs(t, err, ErrSemesterNotFound)
	assert.Zero(t, f.tx.calls, "reference checks run before the transaction")
	assert.Empty(t, f.accounts.created)
}

func TestCreateStudent_UnknownDepartment_NoWrites(t *testing.T) {
	f := newFixture(t)
	st := newStudent()
	st.AcademicDepartmentRef = "missing"

	_, err := f.svc.CreateStudent(context.Background(), "", st, nil)
	assert.ErrorIs(t, err, ErrDepartmentNotFound)
	assert.Zero(t, f.tx.calls)
}

func TestCreateStudent_MissingEmailRejected(t *testing.T) {
	f := newFixture(t)
	st := newStudent()
	st.Email = ""

	_, err := f.svc.CreateStudent(context.Background(), "", st, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.tx.calls)
}

func TestCreateStudent_ZeroRowInsertFailsTransaction(t *testing.T) {
	f := newFixture(t)
	f.students.rows = 0

	_, err := f.svc.CreateStudent(context.Background(), "", newStudent(), nil)
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.True(t, f.tx.failed, "unit of work must report failure so the tx rolls back")
}

func TestCreateStudent_AccountInsertErrorFailsTransaction(t *testing.T) {
	f := newFixture(t)
	f.accounts.err = errors.New("duplicate key value violates unique constraint")

	_, err := f.svc.CreateStudent(context.Background(), "", newStudent(), nil)
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.True(t, f.tx.failed)
	assert.Empty(t, f.students.created)
}

func TestCreateStudent_AllocatorErrorFailsTransaction(t *testing.T) {
	f := newFixture(t)
	f.alloc.failOn = "student:2024:01"

	_, err := f.svc.CreateStudent(context.Background(), "", newStudent(), nil)
	require.Error(t, err)
	assert.True(t, f.tx.failed)
	assert.Empty(t, f.accounts.created)
}

func TestCreateStudent_ImageUploadedAfterCommit(t *testing.T) {
	f := newFixture(t)
	asset := &Asset{Body: strings.NewReader("png-bytes"), ContentType: "image/png"}

	st, err := f.svc.CreateStudent(context.Background(), "", newStudent(), asset)
	require.NoError(t, err)

	require.Len(t, f.uploader.names, 1)
	assert.Equal(t, st.PublicID+"Ada", f.uploader.names[0])
	assert.Equal(t, "https://cdn.example.com/"+st.PublicID+"Ada", st.ProfileImage)
	assert.Equal(t, st.ProfileImage, f.students.images[st.Ref])
}

func TestCreateStudent_UploadFailureDoesNotLoseIdentity(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("bucket unreachable")
	asset := &Asset{Body: strings.NewReader("png-bytes"), ContentType: "image/png"}

	st, err := f.svc.CreateStudent(context.Background(), "", newStudent(), asset)
	require.NoError(t, err)
	assert.Empty(t, st.ProfileImage)
	assert.Len(t, f.accounts.created, 1)
}

func TestCreateFaculty_GlobalScope(t *testing.T) {
	f := newFixture(t)
	member := &facultyentity.FacultyMember{
		Name:                  facultyentity.Name{FirstName: "Grace", LastName: "Hopper"},
		Email:                 "grace@example.com",
		AcademicDepartmentRef: "dep-1",
	}

	got, err := f.svc.CreateFaculty(context.Background(), "", member, nil)
	require.NoError(t, err)
	assert.Equal(t, "F-00001", got.PublicID)
	assert.Equal(t, "fac-1", got.AcademicFacultyRef)
	assert.Equal(t, accountentity.RoleFaculty, f.accounts.created[0].Role)
}

func TestCreateFaculty_UnknownDepartment(t *testing.T) {
	f := newFixture(t)
	member := &facultyentity.FacultyMember{
		Name:                  facultyentity.Name{FirstName: "Grace", LastName: "Hopper"},
		Email:                 "grace@example.com",
		AcademicDepartmentRef: "missing",
	}

	_, err := f.svc.CreateFaculty(context.Background(), "", member, nil)
	assert.ErrorIs(t, err, ErrDepartmentNotFound)
	assert.Zero(t, f.tx.calls)
}

func TestCreateAdmin_NoReferenceChecks(t *testing.T) {
	f := newFixture(t)
	a := &adminentity.Admin{
		Name:  adminentity.Name{FirstName: "Tim", LastName: "Paterson"},
		Email: "tim@example.com",
	}

	got, err := f.svc.CreateAdmin(context.Background(), "", a, nil)
	require.NoError(t, err)
	assert.Equal(t, "A-00001", got.PublicID)
	assert.Equal(t, accountentity.RoleAdmin, f.accounts.created[0].Role)
	require.Len(t, f.alloc.calls, 1)
	assert.Equal(t, "admin", f.alloc.calls[0].Key)
}
