package entity

import "time"

// Semester is an academic semester; the (Year, Code) pair is the period
// scope for student identifiers.
type Semester struct {
	Ref        string    `db:"ref" json:"ref"`
	Name       string    `db:"name" json:"name"`
	Year       string    `db:"year" json:"year"`
	Code       string    `db:"code" json:"code"`
	StartMonth string    `db:"start_month" json:"startMonth"`
	EndMonth   string    `db:"end_month" json:"endMonth"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Department belongs to exactly one academic faculty.
type Department struct {
	Ref        string    `db:"ref" json:"ref"`
	Name       string    `db:"name" json:"name"`
	FacultyRef string    `db:"academic_faculty_ref" json:"academicFaculty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Faculty is an academic faculty, the organizational unit above departments.
type Faculty struct {
	Ref       string    `db:"ref" json:"ref"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
