package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/registrar/internal/student/entity"
)

// Repo provides data access for the students table.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS students (
  ref TEXT PRIMARY KEY,
  public_id TEXT NOT NULL UNIQUE,
  account_ref TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  middle_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL,
  gender TEXT NOT NULL,
  date_of_birth TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL UNIQUE,
  contact_no TEXT NOT NULL DEFAULT '',
  emergency_contact_no TEXT NOT NULL DEFAULT '',
  blood_group TEXT NOT NULL DEFAULT '',
  present_address TEXT NOT NULL DEFAULT '',
  permanent_address TEXT NOT NULL DEFAULT '',
  father_name TEXT NOT NULL DEFAULT '',
  father_occupation TEXT NOT NULL DEFAULT '',
  father_contact_no TEXT NOT NULL DEFAULT '',
  mother_name TEXT NOT NULL DEFAULT '',
  mother_occupation TEXT NOT NULL DEFAULT '',
  mother_contact_no TEXT NOT NULL DEFAULT '',
  local_guardian_name TEXT NOT NULL DEFAULT '',
  local_guardian_occupation TEXT NOT NULL DEFAULT '',
  local_guardian_contact_no TEXT NOT NULL DEFAULT '',
  local_guardian_address TEXT NOT NULL DEFAULT '',
  admission_semester_ref TEXT NOT NULL REFERENCES academic_semesters(ref),
  academic_department_ref TEXT NOT NULL REFERENCES academic_departments(ref),
  academic_faculty_ref TEXT NOT NULL REFERENCES academic_faculties(ref),
  profile_image TEXT NOT NULL DEFAULT '',
  is_deleted BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_students_department ON students(academic_department_ref);`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const studentColumns = `ref, public_id, account_ref, first_name, middle_name, last_name,
	gender, date_of_birth, email, contact_no, emergency_contact_no, blood_group,
	present_address, permanent_address,
	father_name, father_occupation, father_contact_no,
	mother_name, mother_occupation, mother_contact_no,
	local_guardian_name, local_guardian_occupation, local_guardian_contact_no, local_guardian_address,
	admission_semester_ref, academic_department_ref, academic_faculty_ref,
	profile_image, is_deleted, created_at, updated_at`

// Create inserts the profile row on the caller's transaction and reports
// the number of affected rows.
func (r *Repo) Create(ctx context.Context, ext sqlx.ExtContext, s *entity.Student) (int64, error) {
	s.SyncColumns()
	res, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO students (ref, public_id, account_ref, first_name, middle_name, last_name,
			gender, date_of_birth, email, contact_no, emergency_contact_no, blood_group,
			present_address, permanent_address,
			father_name, father_occupation, father_contact_no,
			mother_name, mother_occupation, mother_contact_no,
			local_guardian_name, local_guardian_occupation, local_guardian_contact_no, local_guardian_address,
			admission_semester_ref, academic_department_ref, academic_faculty_ref, profile_image)
		 VALUES (:ref, :public_id, :account_ref, :first_name, :middle_name, :last_name,
			:gender, :date_of_birth, :email, :contact_no, :emergency_contact_no, :blood_group,
			:present_address, :permanent_address,
			:father_name, :father_occupation, :father_contact_no,
			:mother_name, :mother_occupation, :mother_contact_no,
			:local_guardian_name, :local_guardian_occupation, :local_guardian_contact_no, :local_guardian_address,
			:admission_semester_ref, :academic_department_ref, :academic_faculty_ref, :profile_image)`, s)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) GetByRef(ctx context.Context, ref string) (*entity.Student, error) {
	var s entity.Student
	if err := r.db.GetContext(ctx, &s,
		`SELECT `+studentColumns+` FROM students WHERE ref = $1 AND is_deleted = false`, ref); err != nil {
		return nil, err
	}
	s.SyncGroups()
	return &s, nil
}

func (r *Repo) GetByPublicID(ctx context.Context, publicID string) (*entity.Student, error) {
	var s entity.Student
	if err := r.db.GetContext(ctx, &s,
		`SELECT `+studentColumns+` FROM students WHERE public_id = $1 AND is_deleted = false`, publicID); err != nil {
		return nil, err
	}
	s.SyncGroups()
	return &s, nil
}

// UpdateColumns applies a pre-built SET clause (from the patch package) and
// returns the updated row. The clause's placeholders start at $2.
func (r *Repo) UpdateColumns(ctx context.Context, ref string, setClause string, args []any) (*entity.Student, error) {
	query := `UPDATE students SET ` + setClause + `, updated_at = NOW()
		WHERE ref = $1 AND is_deleted = false RETURNING ` + studentColumns
	var s entity.Student
	if err := r.db.GetContext(ctx, &s, query, append([]any{ref}, args...)...); err != nil {
		return nil, err
	}
	s.SyncGroups()
	return &s, nil
}

// SetProfileImage patches the hosted image URL after the provisioning
// transaction has committed.
func (r *Repo) SetProfileImage(ctx context.Context, ref, url string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE students SET profile_image = $2, updated_at = NOW() WHERE ref = $1`, ref, url)
	return err
}

// SetDeleted flips the soft-delete flag on the caller's transaction and
// returns the owning account ref. sql.ErrNoRows means the profile does not
// exist or already carries the requested flag.
func (r *Repo) SetDeleted(ctx context.Context, ext sqlx.ExtContext, ref string, deleted bool) (accountRef, publicID string, err error) {
	row := ext.QueryRowxContext(ctx,
		`UPDATE students SET is_deleted = $2, updated_at = NOW()
		 WHERE ref = $1 AND is_deleted = NOT $2 RETURNING account_ref, public_id`, ref, deleted)
	if err := row.Scan(&accountRef, &publicID); err != nil {
		return "", "", err
	}
	return accountRef, publicID, nil
}
