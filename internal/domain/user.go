package domain

import "time"

type User struct {
	ID       int64      `json:"id"`
	LongName string     `json:"long_name"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Claan    Claan      `json:"claan"`
	Active   bool       `json:"active"`
	Created  *time.Time `json:"created_at,omitempty"`
}

type CreateUserRequest struct {
	LongName string `json:"long_name"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Claan    Claan  `json:"claan"`
}

type SetUserActiveRequest struct {
	UserID int64 `json:"user_id"`
	Active bool  `json:"active"`
}
