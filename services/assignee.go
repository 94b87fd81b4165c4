package services

import (
	"workflow-automation-api/models"
)

// ResolveAssignee determines who becomes responsible when a request enters
// step. The step's default responsible user wins; otherwise the direct
// manager of the request's initiator. Resolution is always relative to the
// initiator, never the current actor, and the manager lookup is a single hop.
// Returns nil when neither exists; callers must abort the transition.
func ResolveAssignee(step *models.ProcessStep, initiator *models.User) *models.User {
	if step != nil && step.DefaultResponsibleUser != nil {
		return step.DefaultResponsibleUser
	}
	if initiator != nil {
		return initiator.Manager
	}
	return nil
}
