package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/registrar/internal/academic/entity"
)

// Repo provides data access for academic reference data. Provisioning only
// ever reads these tables.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// EnsureTables creates the reference-data tables if not exists (idempotent).
func (r *Repo) EnsureTables(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS academic_faculties (
  ref TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS academic_departments (
  ref TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  academic_faculty_ref TEXT NOT NULL REFERENCES academic_faculties(ref),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS academic_semesters (
  ref TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  year TEXT NOT NULL,
  code TEXT NOT NULL,
  start_month TEXT NOT NULL DEFAULT '',
  end_month TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (year, code)
);`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *Repo) GetSemester(ctx context.Context, ref string) (*entity.Semester, error) {
	var s entity.Semester
	if err := r.db.GetContext(ctx, &s,
		`SELECT ref, name, year, code, start_month, end_month, created_at, updated_at
		 FROM academic_semesters WHERE ref = $1`, ref); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetDepartment(ctx context.Context, ref string) (*entity.Department, error) {
	var d entity.Department
	if err := r.db.GetContext(ctx, &d,
		`SELECT ref, name, academic_faculty_ref, created_at, updated_at
		 FROM academic_departments WHERE ref = $1`, ref); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) GetFaculty(ctx context.Context, ref string) (*entity.Faculty, error) {
	var f entity.Faculty
	if err := r.db.GetContext(ctx, &f,
		`SELECT ref, name, created_at, updated_at
		 FROM academic_faculties WHERE ref = $1`, ref); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repo) CreateSemester(ctx context.Context, s *entity.Semester) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO academic_semesters (ref, name, year, code, start_month, end_month)
		 VALUES (:ref, :name, :year, :code, :start_month, :end_month)`, s)
	return err
}

func (r *Repo) CreateDepartment(ctx context.Context, d *entity.Department) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO academic_departments (ref, name, academic_faculty_ref)
		 VALUES (:ref, :name, :academic_faculty_ref)`, d)
	return err
}

func (r *Repo) CreateFaculty(ctx context.Context, f *entity.Faculty) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO academic_faculties (ref, name) VALUES (:ref, :name)`, f)
	return err
}
