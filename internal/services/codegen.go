package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var inviteCodePattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// GenerateInviteCode returns a fresh credential: 32 bytes from the
// system CSPRNG, hex-encoded to 64 lowercase characters. Global
// uniqueness is enforced by the store's unique index, not here; a
// collision on insert is a retryable conflict, not a security event.
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating invite code: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// NormalizeInviteCode trims surrounding whitespace from a candidate
// code and lower-cases it, reporting whether the result is well formed:
// exactly 64 hex characters. Anything else is rejected here, before any
// store access. Pure function, no side effects.
func NormalizeInviteCode(raw string) (string, bool) {
	code := strings.TrimSpace(raw)
	if !inviteCodePattern.MatchString(code) {
		return "", false
	}
	return strings.ToLower(code), true
}
