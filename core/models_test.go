package core

import (
	"testing"
	"time"
)

func TestDocumentIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty content", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := DocumentIDFromContent([]byte(tt.content))
			id2 := DocumentIDFromContent([]byte(tt.content))

			if id1 != id2 {
				t.Errorf("DocumentIDFromContent() produced different IDs for same content: %s vs %s", id1, id2)
			}
			if len(id1) != 16 {
				t.Errorf("DocumentIDFromContent() returned %d hex chars, want 16", len(id1))
			}
		})
	}

	t.Run("different content produces different IDs", func(t *testing.T) {
		if DocumentIDFromContent([]byte("alpha")) == DocumentIDFromContent([]byte("beta")) {
			t.Error("DocumentIDFromContent() produced identical IDs for different content")
		}
	})
}

func TestTaskStatusString(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   string
	}{
		{TaskPending, "PENDING"},
		{TaskRunning, "RUNNING"},
		{TaskCompleted, "COMPLETED"},
		{TaskFailed, "FAILED"},
		{TaskCancelled, "CANCELLED"},
		{TaskStatus(0), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("TaskStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskCompleted, TaskFailed, TaskCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}

	nonTerminal := []TaskStatus{TaskPending, TaskRunning}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestTaskZeroTimestamps(t *testing.T) {
	task := Task{
		Id:        "abc",
		Type:      "document",
		Status:    TaskPending,
		CreatedAt: time.Now().UTC(),
	}

	if !task.StartedAt.IsZero() {
		t.Error("new task should have zero StartedAt")
	}
	if !task.CompletedAt.IsZero() {
		t.Error("new task should have zero CompletedAt")
	}
}
