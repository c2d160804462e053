package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/bamboorules/internal/ruleio"
	"github.com/solatis/bamboorules/internal/types"
)

// RuleStore persists named rules. Logic is kept as its JSON encoding.
type RuleStore struct {
	queries *Queries
	now     func() time.Time
}

// NewRuleStore returns a store backed by the named queries.
func NewRuleStore(queries *Queries) *RuleStore {
	return &RuleStore{queries: queries, now: time.Now}
}

// Put creates or replaces the rule stored under name.
// Replacing keeps the rule's ID and creation time.
func (s *RuleStore) Put(ctx context.Context, name string, logic any) (*types.StoredRule, error) {
	if err := types.ValidateRuleName(name); err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}

	encoded, err := json.Marshal(logic)
	if err != nil {
		return nil, fmt.Errorf("encoding rule %q: %w", name, err)
	}
	if len(encoded) > types.MaxRuleSize {
		return nil, fmt.Errorf("%w: %q is %d bytes (limit %d)", types.ErrRuleTooLarge, name, len(encoded), types.MaxRuleSize)
	}

	now := s.now().UTC()
	if _, err := s.queries.ExecContext(ctx, "upsert-rule",
		string(types.NewRuleID()), name, string(encoded), now, now,
	); err != nil {
		return nil, fmt.Errorf("storing rule %q: %w", name, err)
	}

	return s.Get(ctx, name)
}

// Get returns the rule stored under name, or types.ErrRuleNotFound.
func (s *RuleStore) Get(ctx context.Context, name string) (*types.StoredRule, error) {
	var rule types.StoredRule
	err := s.queries.GetContext(ctx, "get-rule-by-name", &rule, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", types.ErrRuleNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading rule %q: %w", name, err)
	}
	return &rule, nil
}

// Logic returns the decoded logic of the rule stored under name.
func (s *RuleStore) Logic(ctx context.Context, name string) (any, error) {
	rule, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	logic, err := ruleio.DecodeBytes([]byte(rule.Logic), ruleio.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding rule %q: %w", name, err)
	}
	return logic, nil
}

// List returns all stored rules ordered by name.
func (s *RuleStore) List(ctx context.Context) ([]types.StoredRule, error) {
	var stored []types.StoredRule
	if err := s.queries.SelectContext(ctx, "list-rules", &stored); err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	return stored, nil
}

// Delete removes the rule stored under name, or returns types.ErrRuleNotFound.
func (s *RuleStore) Delete(ctx context.Context, name string) error {
	res, err := s.queries.ExecContext(ctx, "delete-rule", name)
	if err != nil {
		return fmt.Errorf("deleting rule %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting rule %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", types.ErrRuleNotFound, name)
	}
	return nil
}

// CreateAPIKey stores the hash of a newly minted API key.
func (s *RuleStore) CreateAPIKey(ctx context.Context, name, secretID string, keyHash []byte) (*types.APIKey, error) {
	key := &types.APIKey{
		APIKeyID:  types.NewAPIKeyID(),
		Name:      name,
		SecretID:  secretID,
		KeyHash:   keyHash,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.queries.ExecContext(ctx, "insert-api-key",
		string(key.APIKeyID), key.Name, key.SecretID, key.KeyHash, key.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("storing api key: %w", err)
	}
	return key, nil
}

// RevokeAPIKey marks a key revoked. Revoking twice is not an error.
func (s *RuleStore) RevokeAPIKey(ctx context.Context, id types.APIKeyID) error {
	if _, err := s.queries.ExecContext(ctx, "revoke-api-key", s.now().UTC(), string(id)); err != nil {
		return fmt.Errorf("revoking api key %s: %w", id, err)
	}
	return nil
}
