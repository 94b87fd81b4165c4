package models

import (
	"testing"
	"time"
)

func TestDeadlineStatus(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	due := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	cases := []struct {
		name    string
		status  string
		dueDate *time.Time
		want    string
	}{
		{"plenty of time", StatusInProgress, due(72 * time.Hour), DeadlineNormal},
		{"just over a day", StatusInProgress, due(24*time.Hour + time.Minute), DeadlineNormal},
		{"exactly a day left", StatusInProgress, due(24 * time.Hour), DeadlineUrgent},
		{"an hour left", StatusInProgress, due(time.Hour), DeadlineUrgent},
		{"due right now", StatusInProgress, due(0), DeadlineUrgent},
		{"past due", StatusInProgress, due(-time.Minute), DeadlineOverdue},
		{"no due date", StatusInProgress, nil, DeadlineNormal},
		{"approved request", StatusApproved, due(-72 * time.Hour), DeadlineNormal},
		{"rejected request", StatusRejected, due(-72 * time.Hour), DeadlineNormal},
	}
	for _, tc := range cases {
		r := Request{Status: tc.status, DueDate: tc.dueDate}
		if got := r.DeadlineStatus(now); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
