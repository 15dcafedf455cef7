package handlers

import (
	"context"
	"log"
	"net/http"
)

// ReminderRunner is the scheduler surface the admin trigger needs.
type ReminderRunner interface {
	Run(ctx context.Context) (int, error)
}

// ReminderHandler exposes a manual trigger for the reminder pass, for
// operators who don't want to wait for the next scheduled tick.
type ReminderHandler struct {
	runner ReminderRunner
}

func NewReminderHandler(runner ReminderRunner) *ReminderHandler {
	return &ReminderHandler{runner: runner}
}

type ReminderRunResponse struct {
	Processed int    `json:"processed"`
	Message   string `json:"message,omitempty"`
}

func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	processed, err := h.runner.Run(r.Context())
	if err != nil {
		log.Printf("Error running reminder pass: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Reminder pass failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, ReminderRunResponse{Processed: processed, Message: "Reminder pass complete"})
}
