package models

import (
	"time"
)

type User struct {
	Username    string     `gorm:"primaryKey;size:60" json:"username"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	FirstName   string     `gorm:"size:255;not null" json:"first_name"`
	LastName    string     `gorm:"size:255;not null" json:"last_name"`
	Phone       string     `gorm:"size:32;not null" json:"phone"`
	JoinAt      time.Time  `gorm:"not null" json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary - публичная часть пользователя, вкладывается в сообщения
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// UserProfile - ответ GET /users/:username
type UserProfile struct {
	UserSummary
	JoinAt      time.Time  `json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		UserSummary: u.Summary(),
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}
}
