package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey" db:"id"`
	Name         string    `gorm:"column:name;not null" db:"name"`
	Surname      string    `gorm:"column:surname;not null" db:"surname"`
	EmployeeCode string    `gorm:"column:employee_code;uniqueIndex;not null" db:"employee_code"`
	Username     string    `gorm:"column:username;uniqueIndex;not null" db:"username"`
	PasswordHash string    `gorm:"column:password_hash;not null" db:"password_hash"`
	Role         string    `gorm:"column:role;not null;index" db:"role"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
