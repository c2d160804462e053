// Package types provides domain models shared across bamboorules components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the engine package can import them without pulling in
// storage or transport dependencies. ID utilities in ids.go import uuid but
// are isolated for selective inclusion.
package types

// RuleID represents a UUIDv7 stored-rule identifier.
// String alias enables type safety while maintaining JSON string serialization.
type RuleID string

// APIKeyID represents a UUIDv7 API key identifier.
type APIKeyID string

// Resource limits enforced by the rule store and service.
const (
	// MaxRuleSize limits the encoded size of stored rule logic.
	// 256KB fits large generated rule trees without allowing blob storage.
	MaxRuleSize = 256 * 1024

	// MaxRuleNameLength bounds stored rule names.
	MaxRuleNameLength = 128
)
