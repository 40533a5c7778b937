package models

import "time"

// User roles.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// User represents a platform account. The password hash and reset-token
// fields are never serialized in responses.
type User struct {
	Base  `bson:",inline"`
	Name  string `json:"name" bson:"name" binding:"required"`
	Email string `json:"email" bson:"email" binding:"required,email"`
	Photo string `json:"photo,omitempty" bson:"photo,omitempty"`
	Role  string `json:"role" bson:"role" binding:"omitempty,oneof=user guide lead-guide admin"`

	Password             string    `json:"-" bson:"password"`
	PasswordChangedAt    time.Time `json:"-" bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string    `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExpires time.Time `json:"-" bson:"passwordResetExpires,omitempty"`

	// Active is a soft-delete marker; nil means active.
	Active *bool `json:"-" bson:"active,omitempty"`
}

// IsActive reports whether the account has not been soft-deleted.
func (u *User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// ChangedPasswordAfter reports whether the password changed after the given
// time. Tokens issued before a password change are invalid.
func (u *User) ChangedPasswordAfter(t time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(t)
}

// UserUpdate is the partial payload accepted by the admin user update path.
// Password changes go through the auth service only.
type UserUpdate struct {
	Name  *string `json:"name,omitempty" bson:"name,omitempty"`
	Email *string `json:"email,omitempty" bson:"email,omitempty" binding:"omitempty,email"`
	Photo *string `json:"photo,omitempty" bson:"photo,omitempty"`
	Role  *string `json:"role,omitempty" bson:"role,omitempty" binding:"omitempty,oneof=user guide lead-guide admin"`
}
