package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rentfold/rentfold/internal/models"
)

// Business outcomes of the invite lifecycle. Anything not covered by
// these sentinels is a store failure, which callers may retry.
var (
	ErrInvalidCode = errors.New("invite code is invalid")
	ErrExpired     = errors.New("invite has expired")
	ErrAlreadyUsed = errors.New("invite has already been used")
	ErrRevoked     = errors.New("invite has been revoked")
	ErrConflict    = errors.New("invite was modified concurrently")
)

// ValidationError reports a bad create request (missing tenant id,
// malformed email, non-positive expiry). It is raised before any store
// access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid invite request: " + e.Reason
}

// ErrorCode is the wire-level discriminator for lifecycle failures.
type ErrorCode string

const (
	CodeInvalidCode     ErrorCode = "INVALID_CODE"
	CodeExpired         ErrorCode = "EXPIRED"
	CodeAlreadyUsed     ErrorCode = "ALREADY_USED"
	CodeRevoked         ErrorCode = "REVOKED"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeStoreError      ErrorCode = "STORE_ERROR"
)

// CodeForError maps a lifecycle error to its wire code. Unrecognized
// errors are store failures; they are the only case callers should
// present as a generic retryable failure.
func CodeForError(err error) ErrorCode {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrInvalidCode):
		return CodeInvalidCode
	case errors.Is(err, ErrExpired):
		return CodeExpired
	case errors.Is(err, ErrAlreadyUsed):
		return CodeAlreadyUsed
	case errors.Is(err, ErrRevoked):
		return CodeRevoked
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.As(err, &ve):
		return CodeValidationError
	default:
		return CodeStoreError
	}
}

// CreateInviteParams are the inputs to CreateInvite. ExpiryDays of 0
// means the default.
type CreateInviteParams struct {
	TenantID   uuid.UUID
	Email      string
	FirstName  *string
	LastName   *string
	Phone      *string
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	LeaseID    *uuid.UUID
	ExpiryDays int
}

// InviteDetails is the read-only payload returned by a successful
// validation: everything the signup form needs to prefill and finish
// provisioning.
type InviteDetails struct {
	TenantID   uuid.UUID  `json:"tenant_id"`
	Email      string     `json:"email"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	PropertyID *uuid.UUID `json:"property_id,omitempty"`
	UnitID     *uuid.UUID `json:"unit_id,omitempty"`
	LeaseID    *uuid.UUID `json:"lease_id,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

const inviteColumns = `id, tenant_id, email, invite_code, status, first_name, last_name, phone,
	 property_id, unit_id, lease_id, expires_at, reminder_count, reminder_sent_at,
	 created_at, accepted_at, revoked_reason`

type InviteService struct {
	db  DB
	now func() time.Time
}

func NewInviteService(db DB) *InviteService {
	return &InviteService{db: db, now: time.Now}
}

// CreateInvite validates inputs, generates a fresh code and performs an
// atomic insert. On a uniqueness violation it regenerates the code and
// retries exactly once before surfacing ErrConflict.
func (s *InviteService) CreateInvite(ctx context.Context, params CreateInviteParams) (*models.Invite, error) {
	if params.TenantID == uuid.Nil {
		return nil, &ValidationError{Reason: "tenant_id is required"}
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, &ValidationError{Reason: "email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Reason: "email is not a valid address"}
	}

	expiryDays := params.ExpiryDays
	if expiryDays == 0 {
		expiryDays = models.DefaultInviteExpiryDays
	}
	if expiryDays < 0 {
		return nil, &ValidationError{Reason: "expiry_days must be a positive integer"}
	}
	expiresAt := s.now().Add(time.Duration(expiryDays) * 24 * time.Hour)

	for attempt := 0; attempt < 2; attempt++ {
		code, err := GenerateInviteCode()
		if err != nil {
			return nil, err
		}

		invite, err := s.insertInvite(ctx, params, email, code, expiresAt)
		if err == nil {
			return invite, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("insert invite: %w", err)
		}
	}

	return nil, ErrConflict
}

func (s *InviteService) insertInvite(ctx context.Context, params CreateInviteParams, email, code string, expiresAt time.Time) (*models.Invite, error) {
	invite := &models.Invite{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenant_invites (tenant_id, email, invite_code, status, first_name, last_name,
		   phone, property_id, unit_id, lease_id, expires_at)
		 VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+inviteColumns,
		params.TenantID, email, code, params.FirstName, params.LastName,
		params.Phone, params.PropertyID, params.UnitID, params.LeaseID, expiresAt,
	).Scan(inviteFields(invite)...)
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// ValidateInviteCode is the read-only probe used by the signup form. It
// never mutates stored state and is safe to call repeatedly. Explicit
// terminal states take precedence over mere expiry.
func (s *InviteService) ValidateInviteCode(ctx context.Context, rawCode string) (*InviteDetails, error) {
	code, ok := NormalizeInviteCode(rawCode)
	if !ok {
		return nil, ErrInvalidCode
	}

	invite, err := s.getByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}

	switch invite.Status {
	case models.InviteStatusAccepted:
		return nil, ErrAlreadyUsed
	case models.InviteStatusRevoked:
		return nil, ErrRevoked
	}
	if invite.IsExpired(s.now()) {
		return nil, ErrExpired
	}

	return &InviteDetails{
		TenantID:   invite.TenantID,
		Email:      invite.Email,
		FirstName:  invite.FirstName,
		LastName:   invite.LastName,
		Phone:      invite.Phone,
		PropertyID: invite.PropertyID,
		UnitID:     invite.UnitID,
		LeaseID:    invite.LeaseID,
		ExpiresAt:  invite.ExpiresAt,
	}, nil
}

// AcceptInvite claims the invite. The transition is a single guarded
// update; under two simultaneous accepts exactly one sees the predicate
// hold. On failure the read path classifies the reason.
func (s *InviteService) AcceptInvite(ctx context.Context, rawCode string) (uuid.UUID, error) {
	code, ok := NormalizeInviteCode(rawCode)
	if !ok {
		return uuid.Nil, ErrInvalidCode
	}

	var tenantID uuid.UUID
	err := s.db.QueryRow(ctx,
		`UPDATE tenant_invites
		 SET status = 'accepted', accepted_at = NOW()
		 WHERE invite_code = $1 AND status = 'pending' AND expires_at > NOW()
		 RETURNING tenant_id`,
		code,
	).Scan(&tenantID)
	if err == nil {
		return tenantID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("accept invite: %w", err)
	}

	// The guard did not hold. Find out why; if the row still looks
	// pending and unexpired we lost a pure race.
	if _, verr := s.ValidateInviteCode(ctx, code); verr != nil {
		return uuid.Nil, verr
	}
	return uuid.Nil, ErrConflict
}

// RevokeInvite cancels a pending invite. Expiry is deliberately absent
// from the guard: an expired-but-pending invite can still be revoked
// for bookkeeping clarity.
func (s *InviteService) RevokeInvite(ctx context.Context, rawCode string, reason *string) error {
	code, ok := NormalizeInviteCode(rawCode)
	if !ok {
		return ErrInvalidCode
	}

	result, err := s.db.Exec(ctx,
		`UPDATE tenant_invites
		 SET status = 'revoked', revoked_reason = $2
		 WHERE invite_code = $1 AND status = 'pending'`,
		code, reason,
	)
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	invite, err := s.getByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("load invite: %w", err)
	}
	switch invite.Status {
	case models.InviteStatusAccepted:
		return ErrAlreadyUsed
	case models.InviteStatusRevoked:
		return ErrRevoked
	}
	return ErrConflict
}

// ResendInvite revokes the prior pending row and creates a fresh invite
// carrying the same tenant, email and prefill data, with a new code and
// a fresh default expiry.
func (s *InviteService) ResendInvite(ctx context.Context, rawCode string) (*models.Invite, error) {
	code, ok := NormalizeInviteCode(rawCode)
	if !ok {
		return nil, ErrInvalidCode
	}

	prior, err := s.getByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}

	reason := "resent"
	if err := s.RevokeInvite(ctx, code, &reason); err != nil {
		return nil, err
	}

	return s.CreateInvite(ctx, CreateInviteParams{
		TenantID:   prior.TenantID,
		Email:      prior.Email,
		FirstName:  prior.FirstName,
		LastName:   prior.LastName,
		Phone:      prior.Phone,
		PropertyID: prior.PropertyID,
		UnitID:     prior.UnitID,
		LeaseID:    prior.LeaseID,
	})
}

// ListInvites returns invites for the manager UI, newest first,
// optionally scoped to one tenant.
func (s *InviteService) ListInvites(ctx context.Context, tenantID *uuid.UUID) ([]models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM tenant_invites`
	args := []any{}
	if tenantID != nil {
		query += ` WHERE tenant_id = $1`
		args = append(args, *tenantID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	invites := []models.Invite{}
	for rows.Next() {
		var invite models.Invite
		if err := rows.Scan(inviteFields(&invite)...); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

// GetPendingInvitesForReminder selects invites eligible for a reminder:
// pending, unexpired, under the reminder cap, and not reminded within
// the last 24 hours.
func (s *InviteService) GetPendingInvitesForReminder(ctx context.Context, limit int) ([]models.Invite, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+inviteColumns+`
		 FROM tenant_invites
		 WHERE status = 'pending'
		   AND expires_at > NOW()
		   AND reminder_count < $1
		   AND (reminder_sent_at IS NULL OR reminder_sent_at < NOW() - INTERVAL '24 hours')
		 ORDER BY created_at
		 LIMIT $2`,
		models.MaxReminders, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select invites for reminder: %w", err)
	}
	defer rows.Close()

	invites := []models.Invite{}
	for rows.Next() {
		var invite models.Invite
		if err := rows.Scan(inviteFields(&invite)...); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select invites for reminder: %w", err)
	}
	return invites, nil
}

// MarkReminderSent advances the reminder bookkeeping, guarded by the
// same staleness predicate used for selection so overlapping scheduler
// runs no-op instead of double-counting. Returns false when another run
// already advanced the row.
func (s *InviteService) MarkReminderSent(ctx context.Context, inviteID uuid.UUID) (bool, error) {
	result, err := s.db.Exec(ctx,
		`UPDATE tenant_invites
		 SET reminder_count = reminder_count + 1, reminder_sent_at = NOW()
		 WHERE id = $1
		   AND status = 'pending'
		   AND reminder_count < $2
		   AND (reminder_sent_at IS NULL OR reminder_sent_at < NOW() - INTERVAL '24 hours')`,
		inviteID, models.MaxReminders,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *InviteService) getByCode(ctx context.Context, code string) (*models.Invite, error) {
	invite := &models.Invite{}
	err := s.db.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM tenant_invites WHERE invite_code = $1`,
		code,
	).Scan(inviteFields(invite)...)
	if err != nil {
		return nil, err
	}
	return invite, nil
}

func inviteFields(i *models.Invite) []any {
	return []any{
		&i.ID, &i.TenantID, &i.Email, &i.InviteCode, &i.Status, &i.FirstName, &i.LastName, &i.Phone,
		&i.PropertyID, &i.UnitID, &i.LeaseID, &i.ExpiresAt, &i.ReminderCount, &i.ReminderSentAt,
		&i.CreatedAt, &i.AcceptedAt, &i.RevokedReason,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
