package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is the stored lifecycle state of an invite. Expiry is
// not a stored status; it is derived from ExpiresAt at read time.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
)

const (
	// InviteCodeLength is the length of the hex-encoded invite code.
	InviteCodeLength = 64

	// DefaultInviteExpiryDays is applied when a create request does not
	// specify an expiry.
	DefaultInviteExpiryDays = 7

	// MaxReminders caps how many reminder emails a single invite gets.
	MaxReminders = 3

	// ExpiringSoonThreshold is the remaining-lifetime window below which
	// an invite is flagged for the manager UI.
	ExpiringSoonThreshold = 48 * time.Hour
)

// Invite is a single-use, time-limited credential that lets an
// unauthenticated person claim a pre-created tenant record. Rows are
// never deleted; accepted and revoked invites are retained for audit.
type Invite struct {
	ID             uuid.UUID    `json:"id"`
	TenantID       uuid.UUID    `json:"tenant_id"`
	Email          string       `json:"email"`
	InviteCode     string       `json:"invite_code"`
	Status         InviteStatus `json:"status"`
	FirstName      *string      `json:"first_name,omitempty"`
	LastName       *string      `json:"last_name,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	PropertyID     *uuid.UUID   `json:"property_id,omitempty"`
	UnitID         *uuid.UUID   `json:"unit_id,omitempty"`
	LeaseID        *uuid.UUID   `json:"lease_id,omitempty"`
	ExpiresAt      time.Time    `json:"expires_at"`
	ReminderCount  int          `json:"reminder_count"`
	ReminderSentAt *time.Time   `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	AcceptedAt     *time.Time   `json:"accepted_at,omitempty"`
	RevokedReason  *string      `json:"revoked_reason,omitempty"`
}

// IsExpired reports whether the invite's lifetime has passed at now.
func (i *Invite) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// Usable reports whether the invite can still be validated or accepted:
// pending and not expired.
func (i *Invite) Usable(now time.Time) bool {
	return i.Status == InviteStatusPending && !i.IsExpired(now)
}

// ExpiringSoon reports whether a still-usable invite has less than the
// threshold remaining. Terminal or already-expired invites are never
// flagged.
func (i *Invite) ExpiringSoon(now time.Time) bool {
	if !i.Usable(now) {
		return false
	}
	return i.ExpiresAt.Sub(now) < ExpiringSoonThreshold
}
