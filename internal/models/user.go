package models

import "time"

// Role is a principal's authorization role.
type Role string

// Roles. Staff are admins; clients are users.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a client or staff member.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the snapshot of u embedded in requests.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username, Email: u.Email}
}
