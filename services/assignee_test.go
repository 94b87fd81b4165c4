package services

import (
	"testing"

	"workflow-automation-api/models"
)

func TestResolveAssigneeDefaultUserWins(t *testing.T) {
	manager := &models.User{UserID: 1, Username: "manager"}
	reviewer := &models.User{UserID: 2, Username: "reviewer"}
	initiator := &models.User{UserID: 3, Username: "employee", Manager: manager}
	step := &models.ProcessStep{StepID: 10, DefaultResponsibleUser: reviewer}

	if got := ResolveAssignee(step, initiator); got != reviewer {
		t.Fatalf("expected default responsible user, got %+v", got)
	}
}

func TestResolveAssigneeFallsBackToManager(t *testing.T) {
	manager := &models.User{UserID: 1, Username: "manager"}
	initiator := &models.User{UserID: 3, Username: "employee", Manager: manager}
	step := &models.ProcessStep{StepID: 10}

	if got := ResolveAssignee(step, initiator); got != manager {
		t.Fatalf("expected initiator's manager, got %+v", got)
	}
}

func TestResolveAssigneeWithoutManager(t *testing.T) {
	// Resolution is a single hop from the initiator: no manager, no assignee.
	initiator := &models.User{UserID: 3, Username: "employee"}
	step := &models.ProcessStep{StepID: 10}

	if got := ResolveAssignee(step, initiator); got != nil {
		t.Fatalf("expected nil assignee, got %+v", got)
	}
}

func TestResolveAssigneeNilInputs(t *testing.T) {
	if got := ResolveAssignee(nil, nil); got != nil {
		t.Fatalf("expected nil assignee for nil inputs, got %+v", got)
	}

	reviewer := &models.User{UserID: 2}
	step := &models.ProcessStep{StepID: 10, DefaultResponsibleUser: reviewer}
	if got := ResolveAssignee(step, nil); got != reviewer {
		t.Fatalf("default responsible user must resolve without an initiator, got %+v", got)
	}
}
