package domain

import "time"

type Role string

const (
	RolePassenger Role = "passenger"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	return r == RolePassenger || r == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PhoneNo      string    `json:"phone_no"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
