package model

import "time"

// User 账号
type User struct {
	ID             AccountID `gorm:"primaryKey;type:varchar(36)"`
	Username       string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name           string    `gorm:"type:varchar(128)"`
	Password       string    `gorm:"type:varchar(255);not null"`
	ProfilePicture string    `gorm:"type:varchar(512)"`
	IsPrivate      bool      `gorm:"not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string { return "users" }

// View 对外展示的用户信息（不含邮箱、密码）
func (u *User) View() UserView {
	return UserView{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		IsPrivate:      u.IsPrivate,
		CreatedAt:      u.CreatedAt,
	}
}
