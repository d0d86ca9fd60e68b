// Package legacy reads the flat key-value store that predates the record
// store. Every value is a JSON document kept as a string under a fixed key.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys of the legacy store.
const (
	KeyUserData           = "userData"
	KeyFinancialGoals     = "financialGoals"
	KeyAppSettings        = "appSettings"
	KeyMonthlyBudget      = "monthlyBudget"
	KeyMigrationCompleted = "migration_completed"
	KeyMigrationProgress  = "migration_progress"
)

// DataKeys are the keys holding user data, removed by a post-migration cleanup.
var DataKeys = []string{KeyUserData, KeyFinancialGoals, KeyAppSettings, KeyMonthlyBudget}

// Store is a flat string key-value store.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value under key into v. It reports false when the key
// is absent or empty, leaving v untouched.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" || raw == "null" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
