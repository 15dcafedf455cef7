package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rentfold/rentfold/internal/models"
	"github.com/rentfold/rentfold/internal/services"
)

const testHandlerCode = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestInviteHandler_Create_InvalidBody(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{}, &mockEmailService{})
	req := httptest.NewRequest(http.MethodPost, "/api/invites", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid request body")
}

func TestInviteHandler_Create_InvalidTenantID(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{}, &mockEmailService{})
	req := httptest.NewRequest(http.MethodPost, "/api/invites", bytes.NewBufferString(`{"tenant_id":"nope","email":"a@b.com"}`))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid tenant ID")
}

func TestInviteHandler_Create_Success(t *testing.T) {
	emails := &mockEmailService{}
	handler := NewInviteHandler(&mockInviteService{}, emails)

	body := `{"tenant_id":"` + uuid.New().String() + `","email":"tenant@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var response InviteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !strings.Contains(response.ClaimURL, "/signup/") {
		t.Errorf("expected claim URL with signup path, got %q", response.ClaimURL)
	}
	if emails.inviteSends != 1 {
		t.Errorf("expected 1 invite email, got %d", emails.inviteSends)
	}
}

func TestInviteHandler_Create_EmailFailureStillCreated(t *testing.T) {
	emails := &mockEmailService{
		SendInviteEmailFunc: func(ctx context.Context, to, firstName, code string, expiresAt time.Time) error {
			return errors.New("smtp down")
		},
	}
	handler := NewInviteHandler(&mockInviteService{}, emails)

	body := `{"tenant_id":"` + uuid.New().String() + `","email":"tenant@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite email failure, got %d", rr.Code)
	}
}

func TestInviteHandler_Create_ValidationError(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{
		CreateInviteFunc: func(ctx context.Context, params services.CreateInviteParams) (*models.Invite, error) {
			return nil, &services.ValidationError{Reason: "email is not a valid address"}
		},
	}, &mockEmailService{})

	body := `{"tenant_id":"` + uuid.New().String() + `","email":"not-an-email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "email is not a valid address")
	assertErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestInviteHandler_Create_StoreError(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{
		CreateInviteFunc: func(ctx context.Context, params services.CreateInviteParams) (*models.Invite, error) {
			return nil, errors.New("connection refused")
		},
	}, &mockEmailService{})

	body := `{"tenant_id":"` + uuid.New().String() + `","email":"tenant@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)
	assertErrorCode(t, rr, http.StatusServiceUnavailable, "STORE_ERROR")
}

func TestInviteHandler_List_Success(t *testing.T) {
	now := time.Now()
	handler := NewInviteHandler(&mockInviteService{
		ListInvitesFunc: func(ctx context.Context, tenantID *uuid.UUID) ([]models.Invite, error) {
			return []models.Invite{
				{ID: uuid.New(), Status: models.InviteStatusPending, ExpiresAt: now.Add(12 * time.Hour)},
				{ID: uuid.New(), Status: models.InviteStatusPending, ExpiresAt: now.Add(6 * 24 * time.Hour)},
			}, nil
		},
	}, &mockEmailService{})

	req := httptest.NewRequest(http.MethodGet, "/api/invites", nil)
	rr := httptest.NewRecorder()
	handler.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var response InviteListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(response.Invites) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(response.Invites))
	}
	if !response.Invites[0].ExpiringSoon {
		t.Errorf("expected invite expiring in 12h to be flagged")
	}
	if response.Invites[1].ExpiringSoon {
		t.Errorf("did not expect invite expiring in 6 days to be flagged")
	}
}

func TestInviteHandler_List_TenantFilter(t *testing.T) {
	wantID := uuid.New()
	var gotID *uuid.UUID
	handler := NewInviteHandler(&mockInviteService{
		ListInvitesFunc: func(ctx context.Context, tenantID *uuid.UUID) ([]models.Invite, error) {
			gotID = tenantID
			return []models.Invite{}, nil
		},
	}, &mockEmailService{})

	req := httptest.NewRequest(http.MethodGet, "/api/invites?tenant_id="+wantID.String(), nil)
	rr := httptest.NewRecorder()
	handler.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotID == nil || *gotID != wantID {
		t.Errorf("expected tenant filter %s, got %v", wantID, gotID)
	}
}

func TestInviteHandler_List_InvalidTenantFilter(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{}, &mockEmailService{})
	req := httptest.NewRequest(http.MethodGet, "/api/invites?tenant_id=nope", nil)
	rr := httptest.NewRecorder()
	handler.List(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid tenant ID")
}

func TestInviteHandler_Resend_Success(t *testing.T) {
	emails := &mockEmailService{}
	handler := NewInviteHandler(&mockInviteService{}, emails)

	req := httptest.NewRequest(http.MethodPost, "/api/invites/"+testHandlerCode+"/resend", nil)
	req.SetPathValue("code", testHandlerCode)
	rr := httptest.NewRecorder()
	handler.Resend(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if emails.inviteSends != 1 {
		t.Errorf("expected 1 invite email, got %d", emails.inviteSends)
	}
}

func TestInviteHandler_Resend_AlreadyUsed(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{
		ResendInviteFunc: func(ctx context.Context, code string) (*models.Invite, error) {
			return nil, services.ErrAlreadyUsed
		},
	}, &mockEmailService{})

	req := httptest.NewRequest(http.MethodPost, "/api/invites/"+testHandlerCode+"/resend", nil)
	req.SetPathValue("code", testHandlerCode)
	rr := httptest.NewRecorder()
	handler.Resend(rr, req)
	assertErrorCode(t, rr, http.StatusConflict, "ALREADY_USED")
}

func TestInviteHandler_Revoke_Success(t *testing.T) {
	var gotReason *string
	handler := NewInviteHandler(&mockInviteService{
		RevokeInviteFunc: func(ctx context.Context, code string, reason *string) error {
			gotReason = reason
			return nil
		},
	}, &mockEmailService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/invites/"+testHandlerCode, bytes.NewBufferString(`{"reason":"tenant moved out"}`))
	req.SetPathValue("code", testHandlerCode)
	rr := httptest.NewRecorder()
	handler.Revoke(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotReason == nil || *gotReason != "tenant moved out" {
		t.Errorf("expected revoke reason to pass through, got %v", gotReason)
	}
}

func TestInviteHandler_Revoke_NoBody(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{}, &mockEmailService{})
	req := httptest.NewRequest(http.MethodDelete, "/api/invites/"+testHandlerCode, nil)
	req.SetPathValue("code", testHandlerCode)
	rr := httptest.NewRecorder()
	handler.Revoke(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestInviteHandler_Revoke_NotFound(t *testing.T) {
	handler := NewInviteHandler(&mockInviteService{
		RevokeInviteFunc: func(ctx context.Context, code string, reason *string) error {
			return services.ErrInvalidCode
		},
	}, &mockEmailService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/invites/"+testHandlerCode, nil)
	req.SetPathValue("code", testHandlerCode)
	rr := httptest.NewRecorder()
	handler.Revoke(rr, req)
	assertErrorResponse(t, rr, http.StatusNotFound, "This invitation link is not valid.")
}
