package entity

import "time"

// Role enumerates the closed set of account roles.
type Role string

const (
	RoleSuperAdmin Role = "superAdmin"
	RoleAdmin      Role = "admin"
	RoleFaculty    Role = "faculty"
	RoleStudent    Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// Status enumerates account statuses.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusBlocked    Status = "blocked"
)

func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusBlocked
}

// Account is the shared credential/role record, one per provisioned person.
// Ref is the internal record reference (snowflake); PublicID is the
// role-derived business identifier minted at provisioning time and immutable
// afterwards.
type Account struct {
	Ref                string     `db:"ref" json:"ref"`
	PublicID           string     `db:"public_id" json:"id"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	Role               Role       `db:"role" json:"role"`
	Status             Status     `db:"status" json:"status"`
	NeedPasswordChange bool       `db:"need_password_change" json:"needPasswordChange"`
	PasswordChangedAt  *time.Time `db:"password_changed_at" json:"passwordChangedAt,omitempty"`
	IsDeleted          bool       `db:"is_deleted" json:"isDeleted"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}
