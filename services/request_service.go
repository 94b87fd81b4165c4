package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workflow-automation-api/config"
	"workflow-automation-api/models"
)

// RequestService is the request lifecycle engine. Every mutation runs as one
// transaction: history row, request fields, due date and the in-app
// notification commit together or not at all. The request row is locked for
// the duration, so concurrent actions on the same request serialize and the
// loser fails its precondition against committed state. Emails go out only
// after commit and never affect the outcome.
type RequestService struct {
	db *gorm.DB
}

func NewRequestService(db *gorm.DB) *RequestService {
	if db == nil {
		db = config.DB
	}
	return &RequestService{db: db}
}

// Create starts a process instance for initiator at the process entry step.
func (s *RequestService) Create(processID, initiatorID int) (*models.Request, error) {
	now := time.Now()
	var (
		created *models.Request
		email   *emailJob
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var process models.Process
		if err := tx.First(&process, "process_id = ?", processID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		steps, err := loadSteps(tx, process.ProcessID)
		if err != nil {
			return err
		}
		initiator, err := loadUserWithManager(tx, initiatorID)
		if err != nil {
			return err
		}

		t, err := planCreate(steps, initiator, now)
		if err != nil {
			return err
		}

		req := models.Request{
			ProcessID:         process.ProcessID,
			InitiatorUserID:   initiator.UserID,
			CurrentStepID:     &t.Step.StepID,
			CurrentAssigneeID: &t.Assignee.UserID,
			Status:            models.StatusInProgress,
			CreateAt:          now,
			UpdateAt:          now,
			DueDate:           t.DueDate,
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		req.Process = process
		req.InitiatorUser = initiator
		req.CurrentStep = t.Step
		req.CurrentAssignee = t.Assignee

		history := models.RequestHistory{
			RequestID:    req.RequestID,
			StepID:       t.HistoryStepID,
			ActionUserID: initiator.UserID,
			ActionType:   t.Action,
			Timestamp:    now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if err := createNotification(tx, t.Assignee, &req, notificationMessage(&req, initiator, t.Summary), now); err != nil {
			return err
		}
		email = newTransitionEmail(t.Assignee, &req, initiator, t.Summary, "")
		created = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	dispatchEmail(email)
	return created, nil
}

// Approve advances the request past its current step, finalizing it when no
// later step exists. Only the current assignee may approve.
func (s *RequestService) Approve(requestID, actorID int, comment string, attachment *string) (*models.Request, error) {
	return s.act(requestID, actorID, comment, attachment,
		func(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error) {
			return planApprove(req, steps, initiator, actor, now)
		})
}

// Reject terminates the request. Only the current assignee may reject.
func (s *RequestService) Reject(requestID, actorID int, comment string, attachment *string) (*models.Request, error) {
	return s.act(requestID, actorID, comment, attachment,
		func(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error) {
			return planReject(req, steps, actor)
		})
}

// Return rolls the request back to an earlier step, or to the initiator at
// the entry step when target is "initiator". A justification comment is
// mandatory.
func (s *RequestService) Return(requestID, actorID int, target, comment string, attachment *string) (*models.Request, error) {
	return s.act(requestID, actorID, comment, attachment,
		func(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error) {
			return planReturn(req, steps, initiator, actor, target, comment, now)
		})
}

// Resubmit re-sends the request at its current step, re-resolving the
// assignee and restarting the deadline clock.
func (s *RequestService) Resubmit(requestID, actorID int, comment string, attachment *string) (*models.Request, error) {
	return s.act(requestID, actorID, comment, attachment,
		func(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error) {
			return planResubmit(req, steps, initiator, now)
		})
}

// Comment appends a COMMENTED history row without changing request state.
func (s *RequestService) Comment(requestID, actorID int, comment string, attachment *string) (*models.Request, error) {
	return s.act(requestID, actorID, comment, attachment,
		func(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error) {
			return planComment(req, comment, attachment)
		})
}

type planFunc func(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error)

func (s *RequestService) act(requestID, actorID int, comment string, attachment *string, plan planFunc) (*models.Request, error) {
	now := time.Now()
	var (
		updated *models.Request
		email   *emailJob
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, steps, initiator, err := loadRequestForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if !canAccess(req, actorID) {
			return ErrNotAuthorized
		}
		actor, err := loadUser(tx, actorID)
		if err != nil {
			return err
		}

		t, err := plan(req, steps, initiator, actor, now)
		if err != nil {
			return err
		}

		email, err = applyTransition(tx, req, t, actor, comment, attachment, now)
		if err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	dispatchEmail(email)
	return updated, nil
}

// applyTransition writes the history row, mutates the request when the plan
// changes state, and records the in-app notification. The returned email job
// is dispatched by the caller after the transaction commits.
func applyTransition(tx *gorm.DB, req *models.Request, t *transition, actor *models.User, comment string, attachment *string, now time.Time) (*emailJob, error) {
	history := models.RequestHistory{
		RequestID:    req.RequestID,
		StepID:       t.HistoryStepID,
		ActionUserID: actor.UserID,
		ActionType:   t.Action,
		Timestamp:    now,
		Comments:     comment,
		Attachment:   attachment,
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, err
	}

	if t.ChangesState {
		var stepID, assigneeID *int
		if t.Step != nil {
			stepID = &t.Step.StepID
		}
		if t.Assignee != nil {
			assigneeID = &t.Assignee.UserID
		}
		updates := map[string]interface{}{
			"status":              t.Status,
			"current_step_id":     stepID,
			"current_assignee_id": assigneeID,
			"due_date":            t.DueDate,
			"update_at":           now,
		}
		if err := tx.Model(&models.Request{}).Where("request_id = ?", req.RequestID).Updates(updates).Error; err != nil {
			return nil, err
		}
		req.Status = t.Status
		req.CurrentStepID = stepID
		req.CurrentAssigneeID = assigneeID
		req.CurrentStep = t.Step
		req.CurrentAssignee = t.Assignee
		req.DueDate = t.DueDate
		req.UpdateAt = now
	}

	if t.Notify == nil {
		return nil, nil
	}
	if err := createNotification(tx, t.Notify, req, notificationMessage(req, actor, t.Summary), now); err != nil {
		return nil, err
	}
	return newTransitionEmail(t.Notify, req, actor, t.Summary, comment), nil
}

// canAccess is the visibility rule: only the initiator and the current
// assignee may view or act on a request.
func canAccess(req *models.Request, userID int) bool {
	if req.InitiatorUserID == userID {
		return true
	}
	return req.CurrentAssigneeID != nil && *req.CurrentAssigneeID == userID
}

func loadRequestForUpdate(tx *gorm.DB, requestID int) (*models.Request, []models.ProcessStep, *models.User, error) {
	var req models.Request
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, err
	}
	if err := tx.First(&req.Process, "process_id = ?", req.ProcessID).Error; err != nil {
		return nil, nil, nil, err
	}
	steps, err := loadSteps(tx, req.ProcessID)
	if err != nil {
		return nil, nil, nil, err
	}
	initiator, err := loadUserWithManager(tx, req.InitiatorUserID)
	if err != nil {
		return nil, nil, nil, err
	}
	req.InitiatorUser = initiator
	return &req, steps, initiator, nil
}

func loadSteps(tx *gorm.DB, processID int) ([]models.ProcessStep, error) {
	var steps []models.ProcessStep
	if err := tx.Preload("DefaultResponsibleUser").
		Where("process_id = ?", processID).
		Order("step_order ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func loadUser(tx *gorm.DB, userID int) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func loadUserWithManager(tx *gorm.DB, userID int) (*models.User, error) {
	var user models.User
	if err := tx.Preload("Manager").First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Get fetches a request for display, enforcing the access rule.
func (s *RequestService) Get(requestID, callerID int) (*models.Request, error) {
	var req models.Request
	if err := s.db.Preload("Process").Preload("InitiatorUser").
		Preload("CurrentStep").Preload("CurrentAssignee").
		First(&req, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canAccess(&req, callerID) {
		return nil, ErrNotAuthorized
	}
	return &req, nil
}

// History returns the audit trail of a request, oldest first.
func (s *RequestService) History(requestID int) ([]models.RequestHistory, error) {
	var history []models.RequestHistory
	if err := s.db.Preload("Step").Preload("ActionUser").
		Where("request_id = ?", requestID).
		Order("timestamp ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// ReturnableSteps lists the steps a request can be returned to: steps of the
// same process strictly before the current one.
func (s *RequestService) ReturnableSteps(req *models.Request) ([]models.ProcessStep, error) {
	if req.Status != models.StatusInProgress || req.CurrentStep == nil {
		return nil, nil
	}
	var steps []models.ProcessStep
	if err := s.db.Where("process_id = ? AND step_order < ?", req.ProcessID, req.CurrentStep.StepOrder).
		Order("step_order ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// ListReceived lists in-progress requests assigned to userID, newest first.
func (s *RequestService) ListReceived(userID int, requestID *int) ([]models.Request, error) {
	q := s.db.Preload("Process").Preload("InitiatorUser").Preload("CurrentStep").
		Where("current_assignee_id = ? AND status = ?", userID, models.StatusInProgress)
	if requestID != nil {
		q = q.Where("request_id = ?", *requestID)
	}
	var requests []models.Request
	if err := q.Order("create_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListSent lists requests initiated by userID, newest first, optionally
// filtered by id, process and status.
func (s *RequestService) ListSent(userID int, requestID, processID *int, status string) ([]models.Request, error) {
	q := s.db.Preload("Process").Preload("CurrentAssignee").Preload("CurrentStep").
		Where("initiator_user_id = ?", userID)
	if requestID != nil {
		q = q.Where("request_id = ?", *requestID)
	}
	if processID != nil {
		q = q.Where("process_id = ?", *processID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var requests []models.Request
	if err := q.Order("create_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func notificationMessage(req *models.Request, actor *models.User, summary string) string {
	return fmt.Sprintf("Request #%d: %s %s.", req.RequestID, actor.DisplayName(), summary)
}
