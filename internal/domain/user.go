package domain

import "strings"

// UserData is the identity part of the session record.
type UserData struct {
	ID       string  `json:"id" validate:"required"`
	ParentID string  `json:"parent_id,omitempty"`
	Name     string  `json:"name" validate:"required"`
	LastName string  `json:"last_name" validate:"required"`
	Cedula   *string `json:"cedula,omitempty"`
	Email    string  `json:"email" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Role     string  `json:"role" validate:"required"`
	Photo    *string `json:"photo,omitempty"`
	Status   string  `json:"status,omitempty"`
}

// ProfileComplete reports whether both the national id and the photo are set.
func (u *UserData) ProfileComplete() bool {
	return nonBlank(u.Cedula) && nonBlank(u.Photo)
}

// ProfileUpdate carries the fields of a partial profile write.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	LastName *string `json:"last_name" validate:"omitempty,min=1"`
	Cedula   *string `json:"cedula" validate:"omitempty,numeric,min=6,max=13"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,min=7"`
	Photo    *string `json:"photo" validate:"omitempty,url"`
	Status   *string `json:"status"`
}

// Empty reports whether the update carries no field at all.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.LastName == nil && p.Cedula == nil && p.Email == nil &&
		p.Phone == nil && p.Photo == nil && p.Status == nil
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
