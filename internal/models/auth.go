package models

import "time"

// UserRole distinguishes faculty from students.
type UserRole string

const (
	RoleFaculty UserRole = "faculty"
	RoleStudent UserRole = "student"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	return r == RoleFaculty || r == RoleStudent
}

// LoginRequest holds credentials for the backend login endpoint.
type LoginRequest struct {
	UserID   string   `json:"_id" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Role     UserRole `json:"role" validate:"required,oneof=faculty student"`
}

// ResetPasswordRequest changes a password using the old one.
type ResetPasswordRequest struct {
	Identifier  string `json:"identifier" validate:"required"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,nefield=OldPassword"`
}

// UserProfile is the cached user document. Faculty profiles carry their
// assigned subjects; student profiles carry their own id.
type UserProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Role       UserRole `json:"role"`
	Department string   `json:"department,omitempty"`
	Subjects   []string `json:"subjects,omitempty"`
}

// HasSubject reports whether the faculty profile lists subjectID.
func (p *UserProfile) HasSubject(subjectID string) bool {
	if p == nil {
		return false
	}
	for _, s := range p.Subjects {
		if s == subjectID {
			return true
		}
	}
	return false
}

// SessionContext is the explicit auth context passed to every request-issuing call.
type SessionContext struct {
	Token     string       `json:"token"`
	User      *UserProfile `json:"user,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

// Authenticated reports whether a token is present.
func (s *SessionContext) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Role returns the user role or empty when unknown.
func (s *SessionContext) Role() UserRole {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Role
}
