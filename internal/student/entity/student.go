package entity

import "time"

// Name groups the person name parts. Stored flattened on the row; kept
// nested in the API payloads.
type Name struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
}

// Guardian holds the student's parental contacts.
type Guardian struct {
	FatherName       string `json:"fatherName"`
	FatherOccupation string `json:"fatherOccupation"`
	FatherContactNo  string `json:"fatherContactNo"`
	MotherName       string `json:"motherName"`
	MotherOccupation string `json:"motherOccupation"`
	MotherContactNo  string `json:"motherContactNo"`
}

// LocalGuardian is the in-town contact for a student living away from home.
type LocalGuardian struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	ContactNo  string `json:"contactNo"`
	Address    string `json:"address"`
}

// Student is the role-specific profile record for a provisioned student.
// PublicID mirrors the owning account's business identifier; AccountRef is
// the one-to-one reference to it (the profile is the dependent side).
// FacultyRef is denormalized from the department at creation time.
type Student struct {
	Ref                string   `db:"ref" json:"ref"`
	PublicID           string   `db:"public_id" json:"id"`
	AccountRef         string   `db:"account_ref" json:"user"`
	Name               Name     `db:"-" json:"name"`
	FirstName          string   `db:"first_name" json:"-"`
	MiddleName         string   `db:"middle_name" json:"-"`
	LastName           string   `db:"last_name" json:"-"`
	Gender             string   `db:"gender" json:"gender"`
	DateOfBirth        string   `db:"date_of_birth" json:"dateOfBirth"`
	Email              string   `db:"email" json:"email"`
	ContactNo          string   `db:"contact_no" json:"contactNo"`
	EmergencyContactNo string   `db:"emergency_contact_no" json:"emergencyContactNo"`
	BloodGroup         string   `db:"blood_group" json:"bloodGroup,omitempty"`
	PresentAddress     string   `db:"present_address" json:"presentAddress"`
	PermanentAddress   string   `db:"permanent_address" json:"permanentAddress"`
	Guardian           Guardian `db:"-" json:"guardian"`
	FatherName         string   `db:"father_name" json:"-"`
	FatherOccupation   string   `db:"father_occupation" json:"-"`
	FatherContactNo    string   `db:"father_contact_no" json:"-"`
	MotherName         string   `db:"mother_name" json:"-"`
	MotherOccupation   string   `db:"mother_occupation" json:"-"`
	MotherContactNo    string   `db:"mother_contact_no" json:"-"`

	LocalGuardian           LocalGuardian `db:"-" json:"localGuardian"`
	LocalGuardianName       string        `db:"local_guardian_name" json:"-"`
	LocalGuardianOccupation string        `db:"local_guardian_occupation" json:"-"`
	LocalGuardianContactNo  string        `db:"local_guardian_contact_no" json:"-"`
	LocalGuardianAddress    string        `db:"local_guardian_address" json:"-"`

	AdmissionSemesterRef  string    `db:"admission_semester_ref" json:"admissionSemester"`
	AcademicDepartmentRef string    `db:"academic_department_ref" json:"academicDepartment"`
	AcademicFacultyRef    string    `db:"academic_faculty_ref" json:"academicFaculty"`
	ProfileImage          string    `db:"profile_image" json:"profileImage,omitempty"`
	IsDeleted             bool      `db:"is_deleted" json:"isDeleted"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// SyncColumns copies the nested API groups onto the flat row columns before
// a write.
func (s *Student) SyncColumns() {
	s.FirstName, s.MiddleName, s.LastName = s.Name.FirstName, s.Name.MiddleName, s.Name.LastName
	s.FatherName, s.FatherOccupation, s.FatherContactNo = s.Guardian.FatherName, s.Guardian.FatherOccupation, s.Guardian.FatherContactNo
	s.MotherName, s.MotherOccupation, s.MotherContactNo = s.Guardian.MotherName, s.Guardian.MotherOccupation, s.Guardian.MotherContactNo
	s.LocalGuardianName = s.LocalGuardian.Name
	s.LocalGuardianOccupation = s.LocalGuardian.Occupation
	s.LocalGuardianContactNo = s.LocalGuardian.ContactNo
	s.LocalGuardianAddress = s.LocalGuardian.Address
}

// SyncGroups rebuilds the nested API groups from the flat row columns after
// a read.
func (s *Student) SyncGroups() {
	s.Name = Name{FirstName: s.FirstName, MiddleName: s.MiddleName, LastName: s.LastName}
	s.Guardian = Guardian{
		FatherName: s.FatherName, FatherOccupation: s.FatherOccupation, FatherContactNo: s.FatherContactNo,
		MotherName: s.MotherName, MotherOccupation: s.MotherOccupation, MotherContactNo: s.MotherContactNo,
	}
	s.LocalGuardian = LocalGuardian{
		Name:       s.LocalGuardianName,
		Occupation: s.LocalGuardianOccupation,
		ContactNo:  s.LocalGuardianContactNo,
		Address:    s.LocalGuardianAddress,
	}
}

// NameUpdate, GuardianUpdate and LocalGuardianUpdate carry the provided
// subset of nested fields in a partial update; nil pointers mean "leave the
// sibling column untouched".
type NameUpdate struct {
	FirstName  *string `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`
}

type GuardianUpdate struct {
	FatherName       *string `json:"fatherName"`
	FatherOccupation *string `json:"fatherOccupation"`
	FatherContactNo  *string `json:"fatherContactNo"`
	MotherName       *string `json:"motherName"`
	MotherOccupation *string `json:"motherOccupation"`
	MotherContactNo  *string `json:"motherContactNo"`
}

type LocalGuardianUpdate struct {
	Name       *string `json:"name"`
	Occupation *string `json:"occupation"`
	ContactNo  *string `json:"contactNo"`
	Address    *string `json:"address"`
}

// StudentUpdate is the partial-update payload for a student profile.
type StudentUpdate struct {
	Name               *NameUpdate          `json:"name"`
	Guardian           *GuardianUpdate      `json:"guardian"`
	LocalGuardian      *LocalGuardianUpdate `json:"localGuardian"`
	Gender             *string              `json:"gender"`
	DateOfBirth        *string              `json:"dateOfBirth"`
	ContactNo          *string              `json:"contactNo"`
	EmergencyContactNo *string              `json:"emergencyContactNo"`
	BloodGroup         *string              `json:"bloodGroup"`
	PresentAddress     *string              `json:"presentAddress"`
	PermanentAddress   *string              `json:"permanentAddress"`
	ProfileImage       *string              `json:"profileImage"`
}
