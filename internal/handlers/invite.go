package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/rentfold/rentfold/internal/models"
	"github.com/rentfold/rentfold/internal/services"
)

// InviteHandler serves the manager-facing invite endpoints.
type InviteHandler struct {
	inviteService services.InviteServiceInterface
	emailService  services.EmailServiceInterface
}

func NewInviteHandler(inviteService services.InviteServiceInterface, emailService services.EmailServiceInterface) *InviteHandler {
	return &InviteHandler{inviteService: inviteService, emailService: emailService}
}

type CreateInviteRequest struct {
	TenantID   string  `json:"tenant_id"`
	Email      string  `json:"email"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	PropertyID *string `json:"property_id,omitempty"`
	UnitID     *string `json:"unit_id,omitempty"`
	LeaseID    *string `json:"lease_id,omitempty"`
	ExpiryDays int     `json:"expiry_days"`
}

type RevokeInviteRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// InviteView decorates a stored invite with the derived fields the
// manager UI renders.
type InviteView struct {
	models.Invite
	Expired      bool `json:"expired"`
	ExpiringSoon bool `json:"expiring_soon"`
}

type InviteResponse struct {
	Invite   InviteView `json:"invite"`
	ClaimURL string     `json:"claim_url,omitempty"`
	Message  string     `json:"message,omitempty"`
}

type InviteListResponse struct {
	Invites []InviteView `json:"invites"`
}

func (h *InviteHandler) view(invite models.Invite) InviteView {
	now := timeNow()
	return InviteView{
		Invite:       invite,
		Expired:      invite.Status == models.InviteStatusPending && invite.IsExpired(now),
		ExpiringSoon: invite.ExpiringSoon(now),
	}
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	params := services.CreateInviteParams{
		TenantID:   tenantID,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		ExpiryDays: req.ExpiryDays,
	}
	if params.PropertyID, err = parseOptionalUUID(req.PropertyID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid property ID")
		return
	}
	if params.UnitID, err = parseOptionalUUID(req.UnitID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit ID")
		return
	}
	if params.LeaseID, err = parseOptionalUUID(req.LeaseID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lease ID")
		return
	}

	invite, err := h.inviteService.CreateInvite(r.Context(), params)
	if err != nil {
		h.writeInviteError(w, "creating invite", err)
		return
	}

	h.dispatchInviteEmail(r, invite)
	writeJSON(w, http.StatusCreated, InviteResponse{
		Invite:   h.view(*invite),
		ClaimURL: h.emailService.ClaimURL(invite.InviteCode),
	})
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	var tenantID *uuid.UUID
	if raw := r.URL.Query().Get("tenant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tenant ID")
			return
		}
		tenantID = &id
	}

	invites, err := h.inviteService.ListInvites(r.Context(), tenantID)
	if err != nil {
		log.Printf("Error listing invites: %v", err)
		writeError(w, http.StatusServiceUnavailable, messageForCode(services.CodeStoreError))
		return
	}

	views := make([]InviteView, 0, len(invites))
	for _, invite := range invites {
		views = append(views, h.view(invite))
	}
	writeJSON(w, http.StatusOK, InviteListResponse{Invites: views})
}

func (h *InviteHandler) Resend(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	invite, err := h.inviteService.ResendInvite(r.Context(), code)
	if err != nil {
		h.writeInviteError(w, "resending invite", err)
		return
	}

	h.dispatchInviteEmail(r, invite)
	writeJSON(w, http.StatusCreated, InviteResponse{
		Invite:   h.view(*invite),
		ClaimURL: h.emailService.ClaimURL(invite.InviteCode),
		Message:  "Invite resent",
	})
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var req RevokeInviteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if err := h.inviteService.RevokeInvite(r.Context(), code, req.Reason); err != nil {
		h.writeInviteError(w, "revoking invite", err)
		return
	}

	writeJSON(w, http.StatusOK, InviteResponse{Message: "Invite revoked"})
}

// dispatchInviteEmail sends the claim email without gating the response
// on delivery. A send failure leaves the invite intact; the manager can
// resend.
func (h *InviteHandler) dispatchInviteEmail(r *http.Request, invite *models.Invite) {
	firstName := ""
	if invite.FirstName != nil {
		firstName = *invite.FirstName
	}
	if err := h.emailService.SendInviteEmail(r.Context(), invite.Email, firstName, invite.InviteCode, invite.ExpiresAt); err != nil {
		log.Printf("Error sending invite email for %s: %v", invite.ID, err)
	}
}

func (h *InviteHandler) writeInviteError(w http.ResponseWriter, action string, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Reason, Code: string(services.CodeValidationError)})
		return
	}

	code := services.CodeForError(err)
	if code == services.CodeStoreError {
		log.Printf("Error %s: %v", action, err)
	}
	writeJSON(w, statusForCode(code), ErrorResponse{Error: messageForCode(code), Code: string(code)})
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
