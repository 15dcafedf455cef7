package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rentfold/rentfold/internal/models"
	"github.com/rentfold/rentfold/internal/services"
)

type mockInviteService struct {
	CreateInviteFunc                 func(ctx context.Context, params services.CreateInviteParams) (*models.Invite, error)
	ValidateInviteCodeFunc           func(ctx context.Context, code string) (*services.InviteDetails, error)
	AcceptInviteFunc                 func(ctx context.Context, code string) (uuid.UUID, error)
	RevokeInviteFunc                 func(ctx context.Context, code string, reason *string) error
	ResendInviteFunc                 func(ctx context.Context, code string) (*models.Invite, error)
	ListInvitesFunc                  func(ctx context.Context, tenantID *uuid.UUID) ([]models.Invite, error)
	GetPendingInvitesForReminderFunc func(ctx context.Context, limit int) ([]models.Invite, error)
	MarkReminderSentFunc             func(ctx context.Context, inviteID uuid.UUID) (bool, error)
}

func testInvite() *models.Invite {
	return &models.Invite{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		Email:      "tenant@example.com",
		InviteCode: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Status:     models.InviteStatusPending,
		ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
		CreatedAt:  time.Now(),
	}
}

func (m *mockInviteService) CreateInvite(ctx context.Context, params services.CreateInviteParams) (*models.Invite, error) {
	if m.CreateInviteFunc != nil {
		return m.CreateInviteFunc(ctx, params)
	}
	invite := testInvite()
	invite.TenantID = params.TenantID
	invite.Email = params.Email
	return invite, nil
}

func (m *mockInviteService) ValidateInviteCode(ctx context.Context, code string) (*services.InviteDetails, error) {
	if m.ValidateInviteCodeFunc != nil {
		return m.ValidateInviteCodeFunc(ctx, code)
	}
	return &services.InviteDetails{
		TenantID:  uuid.New(),
		Email:     "tenant@example.com",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}, nil
}

func (m *mockInviteService) AcceptInvite(ctx context.Context, code string) (uuid.UUID, error) {
	if m.AcceptInviteFunc != nil {
		return m.AcceptInviteFunc(ctx, code)
	}
	return uuid.New(), nil
}

func (m *mockInviteService) RevokeInvite(ctx context.Context, code string, reason *string) error {
	if m.RevokeInviteFunc != nil {
		return m.RevokeInviteFunc(ctx, code, reason)
	}
	return nil
}

func (m *mockInviteService) ResendInvite(ctx context.Context, code string) (*models.Invite, error) {
	if m.ResendInviteFunc != nil {
		return m.ResendInviteFunc(ctx, code)
	}
	return testInvite(), nil
}

func (m *mockInviteService) ListInvites(ctx context.Context, tenantID *uuid.UUID) ([]models.Invite, error) {
	if m.ListInvitesFunc != nil {
		return m.ListInvitesFunc(ctx, tenantID)
	}
	return []models.Invite{}, nil
}

func (m *mockInviteService) GetPendingInvitesForReminder(ctx context.Context, limit int) ([]models.Invite, error) {
	if m.GetPendingInvitesForReminderFunc != nil {
		return m.GetPendingInvitesForReminderFunc(ctx, limit)
	}
	return []models.Invite{}, nil
}

func (m *mockInviteService) MarkReminderSent(ctx context.Context, inviteID uuid.UUID) (bool, error) {
	if m.MarkReminderSentFunc != nil {
		return m.MarkReminderSentFunc(ctx, inviteID)
	}
	return true, nil
}

type mockEmailService struct {
	SendInviteEmailFunc   func(ctx context.Context, to, firstName, code string, expiresAt time.Time) error
	SendReminderEmailFunc func(ctx context.Context, to, firstName, code string, expiresAt time.Time) error

	inviteSends int
}

func (m *mockEmailService) SendInviteEmail(ctx context.Context, to, firstName, code string, expiresAt time.Time) error {
	m.inviteSends++
	if m.SendInviteEmailFunc != nil {
		return m.SendInviteEmailFunc(ctx, to, firstName, code, expiresAt)
	}
	return nil
}

func (m *mockEmailService) SendReminderEmail(ctx context.Context, to, firstName, code string, expiresAt time.Time) error {
	if m.SendReminderEmailFunc != nil {
		return m.SendReminderEmailFunc(ctx, to, firstName, code, expiresAt)
	}
	return nil
}

func (m *mockEmailService) ClaimURL(code string) string {
	return "http://localhost:8080/signup/" + code
}
