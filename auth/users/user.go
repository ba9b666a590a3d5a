package users

import (
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAlumni  Role = "alumni"
	RolePending Role = "pending"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	GraduationYear int       `json:"graduationYear"`
	Phone          string    `json:"phone,omitempty"`
	Avatar         string    `json:"avatar,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RegisterData is what a visitor submits on the sign-up form. The form is
// responsible for password confirmation; the session model never sees it.
type RegisterData struct {
	Name           string
	Email          string
	Password       string
	GraduationYear int
	Phone          string
}

type Session struct {
	User          *User `json:"user"`
	Authenticated bool  `json:"isAuthenticated"`
	Loading       bool  `json:"isLoading"`
}

func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
