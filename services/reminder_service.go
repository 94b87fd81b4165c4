package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"workflow-automation-api/config"
	"workflow-automation-api/models"
)

// ReminderService scans for in-progress requests past their due date and
// emails the current assignee. It is triggered externally (cmd/send-reminders)
// and holds no locks: each reminder is independent of the original assignment
// notification, and one failed send never aborts the sweep.
type ReminderService struct {
	db   *gorm.DB
	send func(to []string, subject, html string) error
}

func NewReminderService(db *gorm.DB) *ReminderService {
	if db == nil {
		db = config.DB
	}
	return &ReminderService{db: db, send: config.SendMail}
}

type ReminderSummary struct {
	Processed int
	Sent      int
	Skipped   int
	Failed    int
}

// Run sweeps all overdue requests as of now.
func (s *ReminderService) Run(now time.Time) (*ReminderSummary, error) {
	var overdue []models.Request
	if err := s.db.Preload("Process").Preload("CurrentAssignee").
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.StatusInProgress, now).
		Find(&overdue).Error; err != nil {
		return nil, err
	}
	return s.sweep(overdue), nil
}

func (s *ReminderService) sweep(overdue []models.Request) *ReminderSummary {
	summary := &ReminderSummary{}
	for i := range overdue {
		req := &overdue[i]
		summary.Processed++

		assignee := req.CurrentAssignee
		if assignee == nil || assignee.Email == "" {
			summary.Skipped++
			continue
		}

		subject, body := reminderEmail(req, assignee)
		if err := s.send([]string{assignee.Email}, subject, body); err != nil {
			log.Printf("reminder email failed for request #%d (to=%s): %v", req.RequestID, assignee.Email, err)
			summary.Failed++
			continue
		}
		summary.Sent++
	}
	return summary
}

func reminderEmail(req *models.Request, assignee *models.User) (subject, body string) {
	subject = fmt.Sprintf("Reminder: overdue task - request #%d", req.RequestID)

	dueDate := "-"
	if req.DueDate != nil {
		dueDate = req.DueDate.Format("2006-01-02")
	}
	message := fmt.Sprintf(
		"This is a reminder that the deadline for the following task has passed:\n\n"+
			"- Request: #%d\n- Process: %s\n- Due date: %s\n\n"+
			"Please review it as soon as possible.",
		req.RequestID, req.Process.Name, dueDate)

	return subject, buildEmailHTML(subject, assignee.DisplayName(), message)
}
