package domain

import "time"

// Role classifies what an authenticated actor is allowed to do globally.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Principal is the authenticated actor for a single request. It is rebuilt
// from the stored user record on every call, never from a stale token claim.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// User is a directory record. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	AvatarURL    string    `json:"profileImageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal derives the request principal from a stored user record.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role}
}
