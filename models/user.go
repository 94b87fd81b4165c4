package models

import (
	"time"
)

type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username  string     `gorm:"column:username;unique" json:"username"`
	FullName  string     `gorm:"column:full_name" json:"full_name"`
	Email     string     `gorm:"column:email" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	IsAdmin   bool       `gorm:"column:is_admin" json:"is_admin"`
	ManagerID *int       `gorm:"column:manager_id" json:"manager_id,omitempty"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Manager *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
