package services

import (
	"errors"
	"testing"
	"time"

	"workflow-automation-api/models"
)

func intp(v int) *int { return &v }

// Fixture mirroring a two-step leave-request process: step 1 has no default
// responsible user (falls back to the initiator's manager), step 2 is owned
// by a fixed reviewer.
type fixture struct {
	alice *models.User // Carol's manager
	bob   *models.User // default responsible user of step 2
	carol *models.User // initiator
	steps []models.ProcessStep
}

func newFixture() *fixture {
	alice := &models.User{UserID: 1, Username: "alice", FullName: "Alice Anders"}
	bob := &models.User{UserID: 2, Username: "bob", FullName: "Bob Burton"}
	carol := &models.User{UserID: 3, Username: "carol", FullName: "Carol Chen", ManagerID: intp(1), Manager: alice}

	steps := []models.ProcessStep{
		{StepID: 10, ProcessID: 1, Name: "Line manager review", StepOrder: 1, DeadlineDays: 2},
		{StepID: 20, ProcessID: 1, Name: "HR review", StepOrder: 2, DeadlineDays: 1, DefaultResponsibleUserID: intp(2), DefaultResponsibleUser: bob},
	}
	return &fixture{alice: alice, bob: bob, carol: carol, steps: steps}
}

func (f *fixture) requestAt(stepID, assigneeID int) *models.Request {
	return &models.Request{
		RequestID:         7,
		ProcessID:         1,
		InitiatorUserID:   f.carol.UserID,
		CurrentStepID:     intp(stepID),
		CurrentAssigneeID: intp(assigneeID),
		Status:            models.StatusInProgress,
	}
}

func assertInProgressState(t *testing.T, tr *transition, wantStepID, wantAssigneeID int, wantDue time.Time) {
	t.Helper()
	if !tr.ChangesState || tr.Status != models.StatusInProgress {
		t.Fatalf("expected in-progress transition, got %+v", tr)
	}
	if tr.Step == nil || tr.Step.StepID != wantStepID {
		t.Fatalf("expected step %d, got %+v", wantStepID, tr.Step)
	}
	if tr.Assignee == nil || tr.Assignee.UserID != wantAssigneeID {
		t.Fatalf("expected assignee %d, got %+v", wantAssigneeID, tr.Assignee)
	}
	if tr.DueDate == nil || !tr.DueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, tr.DueDate)
	}
	if tr.Notify == nil || tr.Notify.UserID != wantAssigneeID {
		t.Fatalf("expected notification for user %d, got %+v", wantAssigneeID, tr.Notify)
	}
}

func assertTerminalState(t *testing.T, tr *transition, wantStatus string, wantHistoryStepID int) {
	t.Helper()
	if !tr.ChangesState || tr.Status != wantStatus {
		t.Fatalf("expected terminal status %s, got %+v", wantStatus, tr)
	}
	if tr.Step != nil || tr.Assignee != nil || tr.DueDate != nil {
		t.Fatalf("terminal transition must clear step/assignee/due date, got %+v", tr)
	}
	if tr.HistoryStepID == nil || *tr.HistoryStepID != wantHistoryStepID {
		t.Fatalf("expected history tagged to step %d, got %v", wantHistoryStepID, tr.HistoryStepID)
	}
	if tr.Notify != nil {
		t.Fatalf("terminal transition must not notify, got %+v", tr.Notify)
	}
}

func TestPlanCreateEntersFirstStepWithManagerAssignee(t *testing.T) {
	f := newFixture()
	now := time.Now()

	tr, err := planCreate(f.steps, f.carol, now)
	if err != nil {
		t.Fatalf("planCreate returned error: %v", err)
	}
	if tr.Action != models.ActionCreated {
		t.Fatalf("expected CREATED, got %s", tr.Action)
	}
	if tr.HistoryStepID == nil || *tr.HistoryStepID != 10 {
		t.Fatalf("expected history tagged to step 10, got %v", tr.HistoryStepID)
	}
	assertInProgressState(t, tr, 10, f.alice.UserID, now.Add(2*24*time.Hour))
}

func TestPlanCreateEmptyProcess(t *testing.T) {
	f := newFixture()

	if _, err := planCreate(nil, f.carol, time.Now()); !errors.Is(err, ErrEmptyProcess) {
		t.Fatalf("expected ErrEmptyProcess, got %v", err)
	}
}

func TestPlanCreateWithoutManagerOrDefault(t *testing.T) {
	f := newFixture()
	f.carol.Manager = nil
	f.carol.ManagerID = nil

	if _, err := planCreate(f.steps, f.carol, time.Now()); !errors.Is(err, ErrNoAssignee) {
		t.Fatalf("expected ErrNoAssignee, got %v", err)
	}
}

func TestPlanCreatePrefersDefaultResponsibleUser(t *testing.T) {
	f := newFixture()
	f.steps[0].DefaultResponsibleUserID = intp(2)
	f.steps[0].DefaultResponsibleUser = f.bob

	tr, err := planCreate(f.steps, f.carol, time.Now())
	if err != nil {
		t.Fatalf("planCreate returned error: %v", err)
	}
	if tr.Assignee.UserID != f.bob.UserID {
		t.Fatalf("default responsible user must win over manager, got %d", tr.Assignee.UserID)
	}
}

func TestPlanApproveAdvancesToNextStep(t *testing.T) {
	f := newFixture()
	now := time.Now()
	req := f.requestAt(10, f.alice.UserID)

	tr, err := planApprove(req, f.steps, f.carol, f.alice, now)
	if err != nil {
		t.Fatalf("planApprove returned error: %v", err)
	}
	if tr.Action != models.ActionApproved {
		t.Fatalf("expected APPROVED, got %s", tr.Action)
	}
	if tr.HistoryStepID == nil || *tr.HistoryStepID != 10 {
		t.Fatalf("history must be tagged to the step being approved, got %v", tr.HistoryStepID)
	}
	assertInProgressState(t, tr, 20, f.bob.UserID, now.Add(24*time.Hour))
}

func TestPlanApproveFinalStepFinalizes(t *testing.T) {
	f := newFixture()
	req := f.requestAt(20, f.bob.UserID)

	tr, err := planApprove(req, f.steps, f.carol, f.bob, time.Now())
	if err != nil {
		t.Fatalf("planApprove returned error: %v", err)
	}
	assertTerminalState(t, tr, models.StatusApproved, 20)
}

func TestPlanApproveRequiresCurrentAssignee(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)

	if _, err := planApprove(req, f.steps, f.carol, f.carol, time.Now()); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestPlanApproveTerminalRequest(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)
	req.Status = models.StatusApproved
	req.CurrentStepID = nil
	req.CurrentAssigneeID = nil

	if _, err := planApprove(req, f.steps, f.carol, f.alice, time.Now()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestPlanApproveNextStepWithoutAssigneeIsAllOrNothing(t *testing.T) {
	f := newFixture()
	f.steps[1].DefaultResponsibleUserID = nil
	f.steps[1].DefaultResponsibleUser = nil
	f.carol.Manager = nil
	f.carol.ManagerID = nil
	req := f.requestAt(10, f.alice.UserID)

	if _, err := planApprove(req, f.steps, f.carol, f.alice, time.Now()); !errors.Is(err, ErrNoAssignee) {
		t.Fatalf("expected ErrNoAssignee, got %v", err)
	}
}

func TestPlanRejectTerminates(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)

	tr, err := planReject(req, f.steps, f.alice)
	if err != nil {
		t.Fatalf("planReject returned error: %v", err)
	}
	if tr.Action != models.ActionRejected {
		t.Fatalf("expected REJECTED, got %s", tr.Action)
	}
	assertTerminalState(t, tr, models.StatusRejected, 10)
}

func TestPlanRejectRequiresCurrentAssignee(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)

	if _, err := planReject(req, f.steps, f.carol); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestPlanReturnToEarlierStep(t *testing.T) {
	f := newFixture()
	now := time.Now()
	req := f.requestAt(20, f.bob.UserID)

	tr, err := planReturn(req, f.steps, f.carol, f.bob, "10", "missing info", now)
	if err != nil {
		t.Fatalf("planReturn returned error: %v", err)
	}
	if tr.Action != models.ActionReturned {
		t.Fatalf("expected RETURNED, got %s", tr.Action)
	}
	if tr.HistoryStepID == nil || *tr.HistoryStepID != 20 {
		t.Fatalf("history must be tagged to the step being left, got %v", tr.HistoryStepID)
	}
	assertInProgressState(t, tr, 10, f.alice.UserID, now.Add(2*24*time.Hour))
}

func TestPlanReturnToInitiator(t *testing.T) {
	f := newFixture()
	now := time.Now()
	req := f.requestAt(20, f.bob.UserID)

	tr, err := planReturn(req, f.steps, f.carol, f.bob, ReturnTargetInitiator, "please clarify", now)
	if err != nil {
		t.Fatalf("planReturn returned error: %v", err)
	}
	assertInProgressState(t, tr, 10, f.carol.UserID, now.Add(2*24*time.Hour))
}

func TestPlanReturnRequiresComment(t *testing.T) {
	f := newFixture()
	req := f.requestAt(20, f.bob.UserID)

	if _, err := planReturn(req, f.steps, f.carol, f.bob, "10", "   ", time.Now()); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}
}

func TestPlanReturnInvalidTargets(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)

	cases := map[string]string{
		"current step": "10",
		"later step":   "20",
		"unknown step": "999",
		"garbage":      "not-a-step",
	}
	for name, target := range cases {
		if _, err := planReturn(req, f.steps, f.carol, f.alice, target, "because", time.Now()); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("%s: expected ErrInvalidTarget, got %v", name, err)
		}
	}
}

func TestPlanReturnNoAssigneeLeavesStateUntouched(t *testing.T) {
	f := newFixture()
	f.carol.Manager = nil
	f.carol.ManagerID = nil
	req := f.requestAt(20, f.bob.UserID)

	if _, err := planReturn(req, f.steps, f.carol, f.bob, "10", "back to you", time.Now()); !errors.Is(err, ErrNoAssignee) {
		t.Fatalf("expected ErrNoAssignee, got %v", err)
	}
}

func TestPlanResubmitExtendsDeadlineOnSameStep(t *testing.T) {
	f := newFixture()
	now := time.Now()
	req := f.requestAt(10, f.alice.UserID)

	tr, err := planResubmit(req, f.steps, f.carol, now)
	if err != nil {
		t.Fatalf("planResubmit returned error: %v", err)
	}
	if tr.Action != models.ActionResubmitted {
		t.Fatalf("expected RESUBMITTED, got %s", tr.Action)
	}
	assertInProgressState(t, tr, 10, f.alice.UserID, now.Add(2*24*time.Hour))
}

func TestPlanResubmitWithoutAssignee(t *testing.T) {
	f := newFixture()
	f.carol.Manager = nil
	f.carol.ManagerID = nil
	req := f.requestAt(10, f.alice.UserID)

	if _, err := planResubmit(req, f.steps, f.carol, time.Now()); !errors.Is(err, ErrNoAssignee) {
		t.Fatalf("expected ErrNoAssignee, got %v", err)
	}
}

func TestPlanCommentRequiresTextOrAttachment(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)

	if _, err := planComment(req, "  ", nil); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}

	attachment := "attachments/2026/08/file.pdf"
	tr, err := planComment(req, "", &attachment)
	if err != nil {
		t.Fatalf("attachment-only comment should be allowed: %v", err)
	}
	if tr.ChangesState || tr.Notify != nil {
		t.Fatalf("comment must not change state or notify, got %+v", tr)
	}
	if tr.HistoryStepID == nil || *tr.HistoryStepID != 10 {
		t.Fatalf("expected history tagged to current step, got %v", tr.HistoryStepID)
	}
}

func TestPlanCommentOnTerminalRequest(t *testing.T) {
	f := newFixture()
	req := f.requestAt(10, f.alice.UserID)
	req.Status = models.StatusRejected
	req.CurrentStepID = nil
	req.CurrentAssigneeID = nil

	tr, err := planComment(req, "for the record", nil)
	if err != nil {
		t.Fatalf("planComment returned error: %v", err)
	}
	if tr.HistoryStepID != nil {
		t.Fatalf("terminal-state comment must carry a nil step, got %v", tr.HistoryStepID)
	}
}
