package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rentfold/rentfold/internal/models"
)

// InviteServiceInterface defines the contract for the invite lifecycle.
type InviteServiceInterface interface {
	CreateInvite(ctx context.Context, params CreateInviteParams) (*models.Invite, error)
	ValidateInviteCode(ctx context.Context, code string) (*InviteDetails, error)
	AcceptInvite(ctx context.Context, code string) (uuid.UUID, error)
	RevokeInvite(ctx context.Context, code string, reason *string) error
	ResendInvite(ctx context.Context, code string) (*models.Invite, error)
	ListInvites(ctx context.Context, tenantID *uuid.UUID) ([]models.Invite, error)
	GetPendingInvitesForReminder(ctx context.Context, limit int) ([]models.Invite, error)
	MarkReminderSent(ctx context.Context, inviteID uuid.UUID) (bool, error)
}

// EmailServiceInterface defines the contract for invite notifications.
type EmailServiceInterface interface {
	SendInviteEmail(ctx context.Context, to, firstName, code string, expiresAt time.Time) error
	SendReminderEmail(ctx context.Context, to, firstName, code string, expiresAt time.Time) error
	ClaimURL(code string) string
}
