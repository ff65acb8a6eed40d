package model

import "time"

// Fan 粉丝关系（User 的粉丝是 Fan）冗余自 Follow，供粉丝列表读取
type Fan struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    AccountID `gorm:"type:varchar(36);index:idx_fan_user;index:idx_fan_pair,unique;not null"`
	FanID     AccountID `gorm:"type:varchar(36);not null;index:idx_fan_pair,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Fan) TableName() string { return "fans" }
