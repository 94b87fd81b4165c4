package services

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"workflow-automation-api/config"
	"workflow-automation-api/models"
)

// sendMail is swappable in tests; production uses the SMTP mailer.
var sendMail = config.SendMail

// NotificationService manages the in-app notification feed.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

// createNotification inserts the persistent notification row inside the
// lifecycle transaction, stamped with the transaction's now so it matches the
// history row written alongside it. A nil recipient is a no-op.
func createNotification(tx *gorm.DB, recipient *models.User, req *models.Request, message string, now time.Time) error {
	if recipient == nil {
		return nil
	}
	n := models.Notification{
		UserID:    recipient.UserID,
		RequestID: req.RequestID,
		Message:   message,
		CreateAt:  now,
	}
	return tx.Create(&n).Error
}

// ListForUser returns the caller's notifications, newest first.
func (s *NotificationService) ListForUser(userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = 0")
	}
	var items []models.Notification
	if err := q.Order("create_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UnreadCount returns the caller's unread notification count.
func (s *NotificationService) UnreadCount(userID int) (int64, error) {
	var n int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = 0", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// MarkRead flips a notification owned by userID to read. Marking an already
// read notification again is a no-op; a notification the caller does not own
// is ErrNotFound.
func (s *NotificationService) MarkRead(notificationID, userID int) error {
	var n models.Notification
	if err := s.db.First(&n, "notification_id = ? AND user_id = ?", notificationID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if n.IsRead {
		return nil
	}
	return s.db.Model(&models.Notification{}).
		Where("notification_id = ?", notificationID).
		Update("is_read", true).Error
}

/* ==========================
   Email side effect
   ========================== */

type emailJob struct {
	to      string
	subject string
	body    string
}

// newTransitionEmail composes the email accompanying a transition. Returns
// nil when the recipient has no address; the in-app notification stands alone.
func newTransitionEmail(recipient *models.User, req *models.Request, actor *models.User, summary, comment string) *emailJob {
	if recipient == nil || recipient.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("New task: request #%d (%s)", req.RequestID, req.Process.Name)
	message := fmt.Sprintf("%s %s.\n\nRequest: #%d\nProcess: %s", actor.DisplayName(), summary, req.RequestID, req.Process.Name)
	if strings.TrimSpace(comment) != "" {
		message += "\n\nComment:\n" + comment
	}
	return &emailJob{
		to:      recipient.Email,
		subject: subject,
		body:    buildEmailHTML(subject, recipient.DisplayName(), message),
	}
}

// dispatchEmail fires the email after the owning transaction committed.
// Delivery is best effort and must never surface to the caller.
func dispatchEmail(job *emailJob) {
	if job == nil {
		return
	}
	go sendMailSafe([]string{job.to}, job.subject, job.body)
}

func sendMailSafe(to []string, subject, html string) {
	if err := sendMail(to, subject, html); err != nil {
		log.Printf("notification email send failed (subject=%q to=%v): %v", subject, to, err)
	}
}

func buildEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "user"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
