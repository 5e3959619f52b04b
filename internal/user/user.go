package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	userDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/user"
)

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Surname      string     `json:"surname"`
	EmployeeCode string     `json:"employee_code"`
	Username     string     `json:"username"`
	Role         actor.Role `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

func (u *User) Actor() actor.Actor {
	return actor.Actor{UserID: u.ID, Role: u.Role}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		EmployeeCode: u.EmployeeCode,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		EmployeeCode: u.EmployeeCode,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         actor.Role(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
