package entity

import (
	"time"

	studententity "github.com/campuskit/registrar/internal/student/entity"
)

type Name = studententity.Name

// Admin is the role-specific profile for administrative staff. Admins carry
// no academic affiliation.
type Admin struct {
	Ref        string `db:"ref" json:"ref"`
	PublicID   string `db:"public_id" json:"id"`
	AccountRef string `db:"account_ref" json:"user"`
	Name       Name   `db:"-" json:"name"`
	FirstName  string `db:"first_name" json:"-"`
	MiddleName string `db:"middle_name" json:"-"`
	LastName   string `db:"last_name" json:"-"`

	Designation        string    `db:"designation" json:"designation"`
	Gender             string    `db:"gender" json:"gender"`
	DateOfBirth        string    `db:"date_of_birth" json:"dateOfBirth"`
	Email              string    `db:"email" json:"email"`
	ContactNo          string    `db:"contact_no" json:"contactNo"`
	EmergencyContactNo string    `db:"emergency_contact_no" json:"emergencyContactNo"`
	BloodGroup         string    `db:"blood_group" json:"bloodGroup,omitempty"`
	PresentAddress     string    `db:"present_address" json:"presentAddress"`
	PermanentAddress   string    `db:"permanent_address" json:"permanentAddress"`
	ProfileImage       string    `db:"profile_image" json:"profileImage,omitempty"`
	IsDeleted          bool      `db:"is_deleted" json:"isDeleted"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

func (a *Admin) SyncColumns() {
	a.FirstName, a.MiddleName, a.LastName = a.Name.FirstName, a.Name.MiddleName, a.Name.LastName
}

func (a *Admin) SyncGroups() {
	a.Name = Name{FirstName: a.FirstName, MiddleName: a.MiddleName, LastName: a.LastName}
}

// AdminUpdate is the partial-update payload for an admin profile.
type AdminUpdate struct {
	Name               *studententity.NameUpdate `json:"name"`
	Designation        *string                   `json:"designation"`
	Gender             *string                   `json:"gender"`
	DateOfBirth        *string                   `json:"dateOfBirth"`
	ContactNo          *string                   `json:"contactNo"`
	EmergencyContactNo *string                   `json:"emergencyContactNo"`
	BloodGroup         *string                   `json:"bloodGroup"`
	PresentAddress     *string                   `json:"presentAddress"`
	PermanentAddress   *string                   `json:"permanentAddress"`
	ProfileImage       *string                   `json:"profileImage"`
}
