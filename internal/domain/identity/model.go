package identity

import (
	"time"

	"github.com/medicarehub/api/internal/platform/auth"
)

// UserID is the store-assigned identifier of a User: a hex ObjectID on the
// Mongo backend, a UUID on Postgres.
type UserID string

func (id UserID) String() string { return string(id) }

type Role string

const (
	RolePatient Role = auth.RolePatient
	RoleDoctor  Role = auth.RoleDoctor
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User is an account. Role is fixed at creation.
type User struct {
	ID             UserID    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Phone          string    `json:"phone"`
	Specialization string    `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Summary is the projection embedded in report and note responses.
type Summary struct {
	ID        UserID    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Summary() *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (u *User) Principal() auth.Principal {
	return auth.Principal{ID: string(u.ID), Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// ProfileUpdate carries the fields a user may change about themselves. Nil
// fields are left untouched.
type ProfileUpdate struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Specialization *string `json:"specialization"`
}
