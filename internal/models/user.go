package models

import "time"

// Roles a user account can hold
const (
	RoleMember = "member"
	RoleStaff  = "staff"
)

// User is an authentication-capable account. Members and coaches both own one.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsStaff reports whether the user may act on behalf of other users
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}

// Session represents an authenticated session
type Session struct {
	ID        string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
