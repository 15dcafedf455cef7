package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockReminderRunner struct {
	RunFunc func(ctx context.Context) (int, error)
}

func (m *mockReminderRunner) Run(ctx context.Context) (int, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return 0, nil
}

func TestReminderHandler_Run_Success(t *testing.T) {
	handler := NewReminderHandler(&mockReminderRunner{
		RunFunc: func(ctx context.Context) (int, error) { return 3, nil },
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/reminders/run", nil)
	rr := httptest.NewRecorder()
	handler.Run(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var response ReminderRunResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", response.Processed)
	}
}

func TestReminderHandler_Run_Error(t *testing.T) {
	handler := NewReminderHandler(&mockReminderRunner{
		RunFunc: func(ctx context.Context) (int, error) { return 0, errors.New("select failed") },
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/reminders/run", nil)
	rr := httptest.NewRecorder()
	handler.Run(rr, req)
	assertErrorResponse(t, rr, http.StatusServiceUnavailable, "Reminder pass failed. Please try again.")
}
