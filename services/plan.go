package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"workflow-automation-api/models"
)

// ReturnTargetInitiator is the sentinel return target that sends a request
// back to the process entry step with the initiator as assignee.
const ReturnTargetInitiator = "initiator"

// transition is the computed effect of a lifecycle action: the history row to
// append, the new request state, and the notification to emit. Plans are pure;
// applying them to storage is the service's job.
type transition struct {
	Action        string
	HistoryStepID *int

	ChangesState bool
	Status       string
	Step         *models.ProcessStep
	Assignee     *models.User
	DueDate      *time.Time

	Notify  *models.User
	Summary string
}

func entryStep(steps []models.ProcessStep) *models.ProcessStep {
	var entry *models.ProcessStep
	for i := range steps {
		if entry == nil || steps[i].StepOrder < entry.StepOrder {
			entry = &steps[i]
		}
	}
	return entry
}

func nextStep(steps []models.ProcessStep, current *models.ProcessStep) *models.ProcessStep {
	var next *models.ProcessStep
	for i := range steps {
		if steps[i].StepOrder <= current.StepOrder {
			continue
		}
		if next == nil || steps[i].StepOrder < next.StepOrder {
			next = &steps[i]
		}
	}
	return next
}

func stepByID(steps []models.ProcessStep, stepID int) *models.ProcessStep {
	for i := range steps {
		if steps[i].StepID == stepID {
			return &steps[i]
		}
	}
	return nil
}

func currentStepOf(req *models.Request, steps []models.ProcessStep) *models.ProcessStep {
	if req.CurrentStepID == nil {
		return nil
	}
	return stepByID(steps, *req.CurrentStepID)
}

func isCurrentAssignee(req *models.Request, actor *models.User) bool {
	return req.CurrentAssigneeID != nil && *req.CurrentAssigneeID == actor.UserID
}

// planCreate decides the initial state of a new request: the entry step and
// its resolved assignee. No request exists yet, so failures leave nothing
// behind.
func planCreate(steps []models.ProcessStep, initiator *models.User, now time.Time) (*transition, error) {
	entry := entryStep(steps)
	if entry == nil {
		return nil, ErrEmptyProcess
	}
	assignee := ResolveAssignee(entry, initiator)
	if assignee == nil {
		return nil, ErrNoAssignee
	}
	return &transition{
		Action:        models.ActionCreated,
		HistoryStepID: &entry.StepID,
		ChangesState:  true,
		Status:        models.StatusInProgress,
		Step:          entry,
		Assignee:      assignee,
		DueDate:       DueDateForStep(entry, now),
		Notify:        assignee,
		Summary:       "sent a new request for your review",
	}, nil
}

// planApprove advances the request to the next step, or finalizes it when the
// current step is the last one. Approval is all-or-nothing: if the next step's
// assignee cannot be resolved, no history row is recorded either.
func planApprove(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, now time.Time) (*transition, error) {
	if req.Status != models.StatusInProgress {
		return nil, ErrInvalidState
	}
	if !isCurrentAssignee(req, actor) {
		return nil, ErrNotAuthorized
	}
	current := currentStepOf(req, steps)
	if current == nil {
		return nil, ErrInvalidState
	}

	next := nextStep(steps, current)
	if next == nil {
		return &transition{
			Action:        models.ActionApproved,
			HistoryStepID: &current.StepID,
			ChangesState:  true,
			Status:        models.StatusApproved,
		}, nil
	}

	assignee := ResolveAssignee(next, initiator)
	if assignee == nil {
		return nil, ErrNoAssignee
	}
	return &transition{
		Action:        models.ActionApproved,
		HistoryStepID: &current.StepID,
		ChangesState:  true,
		Status:        models.StatusInProgress,
		Step:          next,
		Assignee:      assignee,
		DueDate:       DueDateForStep(next, now),
		Notify:        assignee,
		Summary:       "approved a request and forwarded it to you",
	}, nil
}

func planReject(req *models.Request, steps []models.ProcessStep, actor *models.User) (*transition, error) {
	if req.Status != models.StatusInProgress {
		return nil, ErrInvalidState
	}
	if !isCurrentAssignee(req, actor) {
		return nil, ErrNotAuthorized
	}
	current := currentStepOf(req, steps)
	if current == nil {
		return nil, ErrInvalidState
	}
	return &transition{
		Action:        models.ActionRejected,
		HistoryStepID: &current.StepID,
		ChangesState:  true,
		Status:        models.StatusRejected,
	}, nil
}

// planReturn rolls the request back: either to the process entry step with
// the initiator as assignee (target "initiator"), or to an earlier step of
// the same process with its resolved assignee. Justification is mandatory.
// The history row is tagged to the step the request is leaving.
func planReturn(req *models.Request, steps []models.ProcessStep, initiator, actor *models.User, target, comment string, now time.Time) (*transition, error) {
	if req.Status != models.StatusInProgress {
		return nil, ErrInvalidState
	}
	if strings.TrimSpace(comment) == "" {
		return nil, ErrEmptyComment
	}
	current := currentStepOf(req, steps)
	if current == nil {
		return nil, ErrInvalidState
	}

	var (
		returnStep     *models.ProcessStep
		returnAssignee *models.User
		summary        string
	)
	if target == ReturnTargetInitiator {
		returnStep = entryStep(steps)
		returnAssignee = initiator
		summary = "returned a request to you as its initiator"
	} else {
		stepID, err := strconv.Atoi(target)
		if err != nil {
			return nil, ErrInvalidTarget
		}
		returnStep = stepByID(steps, stepID)
		if returnStep == nil || returnStep.StepOrder >= current.StepOrder {
			return nil, ErrInvalidTarget
		}
		returnAssignee = ResolveAssignee(returnStep, initiator)
		if returnAssignee == nil {
			return nil, ErrNoAssignee
		}
		summary = fmt.Sprintf("returned a request to step %q", returnStep.Name)
	}

	return &transition{
		Action:        models.ActionReturned,
		HistoryStepID: &current.StepID,
		ChangesState:  true,
		Status:        models.StatusInProgress,
		Step:          returnStep,
		Assignee:      returnAssignee,
		DueDate:       DueDateForStep(returnStep, now),
		Notify:        returnAssignee,
		Summary:       summary,
	}, nil
}

// planResubmit re-sends the request at its current step: the assignee is
// re-resolved and the deadline clock restarts from now.
func planResubmit(req *models.Request, steps []models.ProcessStep, initiator *models.User, now time.Time) (*transition, error) {
	if req.Status != models.StatusInProgress {
		return nil, ErrInvalidState
	}
	current := currentStepOf(req, steps)
	if current == nil {
		return nil, ErrInvalidState
	}
	assignee := ResolveAssignee(current, initiator)
	if assignee == nil {
		return nil, ErrNoAssignee
	}
	return &transition{
		Action:        models.ActionResubmitted,
		HistoryStepID: &current.StepID,
		ChangesState:  true,
		Status:        models.StatusInProgress,
		Step:          current,
		Assignee:      assignee,
		DueDate:       DueDateForStep(current, now),
		Notify:        assignee,
		Summary:       "resubmitted a request for your review",
	}, nil
}

// planComment appends a COMMENTED history row. Allowed in any status (the
// step reference is nil once the request is terminal); requires text or an
// attachment; never changes request state or notifies anyone.
func planComment(req *models.Request, comment string, attachment *string) (*transition, error) {
	if strings.TrimSpace(comment) == "" && attachment == nil {
		return nil, ErrEmptyComment
	}
	return &transition{
		Action:        models.ActionCommented,
		HistoryStepID: req.CurrentStepID,
	}, nil
}
