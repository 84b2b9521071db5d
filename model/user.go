package model

import "time"

type Role string

const (
	RoleUser    Role = "USER"
	RolePartner Role = "PARTNER"
	RoleAdmin   Role = "ADMIN"
)

type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	Nickname      string    `json:"nickname"`
	Role          Role      `json:"role"`
	PenaltyPoints int       `json:"penalty_points"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Nickname string `json:"nickname" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=USER PARTNER"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
