package models

import "time"

type Notification struct {
	NotificationID int       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID         int       `gorm:"column:user_id" json:"user_id"`
	RequestID      int       `gorm:"column:request_id" json:"request_id"`
	Message        string    `gorm:"column:message" json:"message"`
	IsRead         bool      `gorm:"column:is_read" json:"is_read"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`
}

func (Notification) TableName() string { return "notifications" }
