package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/registrar/internal/faculty/entity"
)

// Repo provides data access for the faculty_members table.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS faculty_members (
  ref TEXT PRIMARY KEY,
  public_id TEXT NOT NULL UNIQUE,
  account_ref TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  middle_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL,
  designation TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL,
  date_of_birth TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL UNIQUE,
  contact_no TEXT NOT NULL DEFAULT '',
  emergency_contact_no TEXT NOT NULL DEFAULT '',
  blood_group TEXT NOT NULL DEFAULT '',
  present_address TEXT NOT NULL DEFAULT '',
  permanent_address TEXT NOT NULL DEFAULT '',
  academic_department_ref TEXT NOT NULL REFERENCES academic_departments(ref),
  academic_faculty_ref TEXT NOT NULL REFERENCES academic_faculties(ref),
  profile_image TEXT NOT NULL DEFAULT '',
  is_deleted BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const facultyColumns = `ref, public_id, account_ref, first_name, middle_name, last_name,
	designation, gender, date_of_birth, email, contact_no, emergency_contact_no,
	blood_group, present_address, permanent_address,
	academic_department_ref, academic_faculty_ref,
	profile_image, is_deleted, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, ext sqlx.ExtContext, f *entity.FacultyMember) (int64, error) {
	f.SyncColumns()
	res, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO faculty_members (ref, public_id, account_ref, first_name, middle_name, last_name,
			designation, gender, date_of_birth, email, contact_no, emergency_contact_no,
			blood_group, present_address, permanent_address,
			academic_department_ref, academic_faculty_ref, profile_image)
		 VALUES (:ref, :public_id, :account_ref, :first_name, :middle_name, :last_name,
			:designation, :gender, :date_of_birth, :email, :contact_no, :emergency_contact_no,
			:blood_group, :present_address, :permanent_address,
			:academic_department_ref, :academic_faculty_ref, :profile_image)`, f)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) GetByRef(ctx context.Context, ref string) (*entity.FacultyMember, error) {
	var f entity.FacultyMember
	if err := r.db.GetContext(ctx, &f,
		`SELECT `+facultyColumns+` FROM faculty_members WHERE ref = $1 AND is_deleted = false`, ref); err != nil {
		return nil, err
	}
	f.SyncGroups()
	return &f, nil
}

func (r *Repo) GetByPublicID(ctx context.Context, publicID string) (*entity.FacultyMember, error) {
	var f entity.FacultyMember
	if err := r.db.GetContext(ctx, &f,
		`SELECT `+facultyColumns+` FROM faculty_members WHERE public_id = $1 AND is_deleted = false`, publicID); err != nil {
		return nil, err
	}
	f.SyncGroups()
	return &f, nil
}

func (r *Repo) UpdateColumns(ctx context.Context, ref string, setClause string, args []any) (*entity.FacultyMember, error) {
	query := `UPDATE faculty_members SET ` + setClause + `, updated_at = NOW()
		WHERE ref = $1 AND is_deleted = false RETURNING ` + facultyColumns
	var f entity.FacultyMember
	if err := r.db.GetContext(ctx, &f, query, append([]any{ref}, args...)...); err != nil {
		return nil, err
	}
	f.SyncGroups()
	return &f, nil
}

func (r *Repo) SetProfileImage(ctx context.Context, ref, url string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE faculty_members SET profile_image = $2, updated_at = NOW() WHERE ref = $1`, ref, url)
	return err
}

func (r *Repo) SetDeleted(ctx context.Context, ext sqlx.ExtContext, ref string, deleted bool) (accountRef, publicID string, err error) {
	row := ext.QueryRowxContext(ctx,
		`UPDATE faculty_members SET is_deleted = $2, updated_at = NOW()
		 WHERE ref = $1 AND is_deleted = NOT $2 RETURNING account_ref, public_id`, ref, deleted)
	if err := row.Scan(&accountRef, &publicID); err != nil {
		return "", "", err
	}
	return accountRef, publicID, nil
}
