package storage

import (
	"database/sql"
	"fmt"
	"time"

	"objcmeta/internal/errors"
)

// FailurePolicy defines how long a failed extraction is remembered.
type FailurePolicy struct {
	TTL         time.Duration
	Description string
}

// failurePolicies maps error codes to their policies. Codes without a policy
// are not recorded.
var failurePolicies = map[errors.ErrorCode]FailurePolicy{
	errors.ParseFailed: {
		TTL:         60 * time.Second,
		Description: "Provider could not parse the header - likely a syntax error",
	},
	errors.SnapshotInvalid: {
		TTL:         60 * time.Second,
		Description: "Snapshot failed validation - it must be re-recorded",
	},
}

// FailurePolicyFor returns the policy for code.
func FailurePolicyFor(code errors.ErrorCode) (FailurePolicy, bool) {
	policy, ok := failurePolicies[code]
	return policy, ok
}

// FailureEntry is a remembered extraction failure.
type FailureEntry struct {
	Key       string
	Code      errors.ErrorCode
	Message   string
	Checksum  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RecordFailure remembers that extracting key failed while the header had
// checksum. Codes without a policy are ignored.
func (c *DocumentCache) RecordFailure(key string, code errors.ErrorCode, message, checksum string) error {
	policy, ok := FailurePolicyFor(code)
	if !ok {
		return nil
	}

	now := c.now().UTC()
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO parse_failures (key, code, message, checksum, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key, string(code), message, checksum, now.Format(time.RFC3339), now.Add(policy.TTL).Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// CheckFailure returns the remembered failure for key, or nil when there is
// none. Expired failures and failures recorded against a different header
// checksum are discarded.
func (c *DocumentCache) CheckFailure(key, checksum string) (*FailureEntry, error) {
	var (
		entry     FailureEntry
		code      string
		createdAt string
		expiresAt string
	)
	err := c.db.QueryRow(`
		SELECT key, code, message, checksum, created_at, expires_at
		FROM parse_failures
		WHERE key = ?
	`, key).Scan(&entry.Key, &code, &entry.Message, &entry.Checksum, &createdAt, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check failures: %w", err)
	}

	entry.Code = errors.ErrorCode(code)
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	entry.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)

	if !entry.ExpiresAt.After(c.now()) || entry.Checksum != checksum {
		return nil, c.ClearFailure(key)
	}

	c.db.logger.Debug("Failure cache hit", "key", key, "code", code)
	return &entry, nil
}

// ClearFailure forgets the failure for key.
func (c *DocumentCache) ClearFailure(key string) error {
	if _, err := c.db.Exec("DELETE FROM parse_failures WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to clear failure: %w", err)
	}
	return nil
}
