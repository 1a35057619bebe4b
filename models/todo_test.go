package models

import (
	"testing"
	"time"
)

func TestTodoSetCompleted(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var td Todo

	td.SetCompleted(true, now)
	if !td.IsCompleted || td.CompletedAt == nil || !td.CompletedAt.Equal(now) {
		t.Fatalf("expected completed with timestamp, got %+v", td)
	}

	// Completing again keeps the first timestamp.
	td.SetCompleted(true, now.Add(time.Hour))
	if !td.CompletedAt.Equal(now) {
		t.Fatalf("completed_at changed on repeated completion: %v", td.CompletedAt)
	}

	td.SetCompleted(false, now)
	if td.IsCompleted || td.CompletedAt != nil {
		t.Fatalf("expected cleared completion, got %+v", td)
	}
}

func TestRoleAndPriorityValid(t *testing.T) {
	if _, ok := ParseRole("admin"); !ok {
		t.Fatalf("admin should be valid")
	}
	if _, ok := ParseRole("owner"); ok {
		t.Fatalf("owner should be invalid")
	}
	if !PriorityHigh.Valid() || Priority("urgent").Valid() {
		t.Fatalf("priority validation mismatch")
	}
}
