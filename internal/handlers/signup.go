package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rentfold/rentfold/internal/services"
)

// SignupHandler serves the unauthenticated claim endpoints. Callers
// only hold an invite code; every response is shaped so the signup
// page can render it directly.
type SignupHandler struct {
	inviteService services.InviteServiceInterface
}

func NewSignupHandler(inviteService services.InviteServiceInterface) *SignupHandler {
	return &SignupHandler{inviteService: inviteService}
}

type AcceptInviteRequest struct {
	Code string `json:"code"`
}

type ValidateInviteResponse struct {
	Valid  bool                    `json:"valid"`
	Invite *services.InviteDetails `json:"invite,omitempty"`
}

// ValidateErrorResponse mirrors ValidateInviteResponse so the signup
// page can branch on "valid" in both outcomes.
type ValidateErrorResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type AcceptInviteResponse struct {
	Success  bool   `json:"success"`
	TenantID string `json:"tenant_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

type AcceptErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func (h *SignupHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	details, err := h.inviteService.ValidateInviteCode(r.Context(), code)
	if err != nil {
		errCode := h.signupErrorCode("validating invite", err)
		writeJSON(w, statusForCode(errCode), ValidateErrorResponse{
			Error: messageForCode(errCode),
			Code:  string(errCode),
		})
		return
	}

	writeJSON(w, http.StatusOK, ValidateInviteResponse{Valid: true, Invite: details})
}

func (h *SignupHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, AcceptErrorResponse{Error: "Invalid request body"})
		return
	}

	tenantID, err := h.inviteService.AcceptInvite(r.Context(), req.Code)
	if err != nil {
		errCode := h.signupErrorCode("accepting invite", err)
		writeJSON(w, statusForCode(errCode), AcceptErrorResponse{
			Error: messageForCode(errCode),
			Code:  string(errCode),
		})
		return
	}

	writeJSON(w, http.StatusOK, AcceptInviteResponse{
		Success:  true,
		TenantID: tenantID.String(),
		Message:  "Invite accepted",
	})
}

func (h *SignupHandler) signupErrorCode(action string, err error) services.ErrorCode {
	code := services.CodeForError(err)
	if code == services.CodeStoreError {
		log.Printf("Error %s: %v", action, err)
	}
	return code
}
