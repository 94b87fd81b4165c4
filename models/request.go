package models

import (
	"time"
)

// Request statuses. IN_PROGRESS is the only non-terminal status: a request
// keeps a current step and assignee exactly while it is IN_PROGRESS.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
)

// History action types.
const (
	ActionCreated     = "CREATED"
	ActionApproved    = "APPROVED"
	ActionRejected    = "REJECTED"
	ActionCommented   = "COMMENTED"
	ActionReturned    = "RETURNED"
	ActionResubmitted = "RESUBMITTED"
)

// Deadline classifications, derived from status and due date on every read.
const (
	DeadlineNormal  = "normal"
	DeadlineUrgent  = "urgent"
	DeadlineOverdue = "overdue"
)

type Request struct {
	RequestID         int        `gorm:"primaryKey;column:request_id" json:"request_id"`
	ProcessID         int        `gorm:"column:process_id" json:"process_id"`
	InitiatorUserID   int        `gorm:"column:initiator_user_id" json:"initiator_user_id"`
	CurrentStepID     *int       `gorm:"column:current_step_id" json:"current_step_id,omitempty"`
	CurrentAssigneeID *int       `gorm:"column:current_assignee_id" json:"current_assignee_id,omitempty"`
	Status            string     `gorm:"column:status;default:IN_PROGRESS" json:"status"`
	CreateAt          time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt          time.Time  `gorm:"column:update_at" json:"update_at"`
	DueDate           *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`

	// Relations
	Process         Process      `gorm:"foreignKey:ProcessID" json:"process,omitempty"`
	InitiatorUser   *User        `gorm:"foreignKey:InitiatorUserID" json:"initiator_user,omitempty"`
	CurrentStep     *ProcessStep `gorm:"foreignKey:CurrentStepID" json:"current_step,omitempty"`
	CurrentAssignee *User        `gorm:"foreignKey:CurrentAssigneeID" json:"current_assignee,omitempty"`
}

type RequestHistory struct {
	HistoryID    int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	RequestID    int       `gorm:"column:request_id" json:"request_id"`
	StepID       *int      `gorm:"column:step_id" json:"step_id,omitempty"`
	ActionUserID int       `gorm:"column:action_user_id" json:"action_user_id"`
	ActionType   string    `gorm:"column:action_type" json:"action_type"`
	Timestamp    time.Time `gorm:"column:timestamp" json:"timestamp"`
	Comments     string    `gorm:"column:comments" json:"comments"`
	Attachment   *string   `gorm:"column:attachment" json:"attachment,omitempty"`

	// Relations
	Step       *ProcessStep `gorm:"foreignKey:StepID" json:"step,omitempty"`
	ActionUser *User        `gorm:"foreignKey:ActionUserID" json:"action_user,omitempty"`
}

func (Request) TableName() string {
	return "requests"
}

func (RequestHistory) TableName() string {
	return "request_history"
}

// DeadlineStatus classifies how close the request is to its due date. It is
// derived on every read and never stored.
func (r *Request) DeadlineStatus(now time.Time) string {
	if r.Status != StatusInProgress || r.DueDate == nil {
		return DeadlineNormal
	}
	remaining := r.DueDate.Sub(now)
	switch {
	case remaining < 0:
		return DeadlineOverdue
	case remaining <= 24*time.Hour:
		return DeadlineUrgent
	default:
		return DeadlineNormal
	}
}
