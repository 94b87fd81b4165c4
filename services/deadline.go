package services

import (
	"time"

	"workflow-automation-api/models"
)

// DueDateForStep derives the due date for a request entering step at now.
// A nil step (terminal state) has no due date. Recomputed and persisted on
// every transition that sets the current step, including resubmit, which
// restarts the clock on the same step.
func DueDateForStep(step *models.ProcessStep, now time.Time) *time.Time {
	if step == nil {
		return nil
	}
	due := now.Add(time.Duration(step.DeadlineDays) * 24 * time.Hour)
	return &due
}
