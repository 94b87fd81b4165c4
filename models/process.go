package models

import (
	"time"
)

type Process struct {
	ProcessID   int        `gorm:"primaryKey;column:process_id" json:"process_id"`
	Name        string     `gorm:"column:name" json:"name"`
	Description string     `gorm:"column:description" json:"description"`
	IsActive    bool       `gorm:"column:is_active" json:"is_active"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Steps []ProcessStep `gorm:"foreignKey:ProcessID" json:"steps,omitempty"`
}

// DefaultDeadlineDays applies when a step is created without an explicit deadline.
const DefaultDeadlineDays = 3

type ProcessStep struct {
	StepID                   int        `gorm:"primaryKey;column:step_id" json:"step_id"`
	ProcessID                int        `gorm:"column:process_id" json:"process_id"`
	Name                     string     `gorm:"column:name" json:"name"`
	StepOrder                int        `gorm:"column:step_order" json:"step_order"`
	ResponsibleUnit          string     `gorm:"column:responsible_unit" json:"responsible_unit"`
	DefaultResponsibleUserID *int       `gorm:"column:default_responsible_user_id" json:"default_responsible_user_id,omitempty"`
	DeadlineDays             int        `gorm:"column:deadline_days;default:3" json:"deadline_days"`
	CreateAt                 *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt                 *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	DefaultResponsibleUser *User `gorm:"foreignKey:DefaultResponsibleUserID" json:"default_responsible_user,omitempty"`
}

func (Process) TableName() string {
	return "processes"
}

func (ProcessStep) TableName() string {
	return "process_steps"
}
