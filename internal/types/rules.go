// internal/types/rules.go
package types

import (
	"regexp"
	"time"
)

/*
 * Domain types for stored rules.
 *
 * A stored rule is a named logic document kept by the rule store and
 * evaluated by name through the service or CLI. The logic is kept as its
 * JSON encoding; decoding into engine values happens at the store boundary.
 *
 * Key types:
 *   - StoredRule: named logic document with identity and timestamps
 *   - APIKey: hashed service credential bound to an HMAC secret
 */

// StoredRule is a named rule persisted by the rule store.
type StoredRule struct {
	RuleID    RuleID    `db:"rule_id" json:"rule_id"`
	Name      string    `db:"name" json:"name"`
	Logic     string    `db:"logic" json:"logic"` // JSON encoding of the rule
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// APIKey is a service credential. Only the HMAC of the key is stored.
type APIKey struct {
	APIKeyID   APIKeyID   `db:"api_key_id" json:"api_key_id"`
	Name       string     `db:"name" json:"name"`
	SecretID   string     `db:"secret_id" json:"secret_id"`
	KeyHash    []byte     `db:"key_hash" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

var ruleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateRuleName checks a stored rule name against the naming rules.
// Returns ErrInvalidRuleName for empty, overlong, or non-conforming names.
func ValidateRuleName(name string) error {
	if name == "" || len(name) > MaxRuleNameLength {
		return ErrInvalidRuleName
	}
	if !ruleNamePattern.MatchString(name) {
		return ErrInvalidRuleName
	}
	return nil
}
