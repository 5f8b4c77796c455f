package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// ----- Users -----

// GetOrCreateUser returns the user with id, creating it on first sight, and
// stamps last_seen.
func (db *DB) GetOrCreateUser(ctx context.Context, id string) (*types.User, error) {
	if err := db.ensureUser(ctx, id); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	if _, err := db.exec(ctx, "UPDATE users SET last_seen = ? WHERE id = ?", time.Now().Unix(), id); err != nil {
		return nil, fmt.Errorf("touch user: %w", err)
	}
	return db.GetUser(ctx, id)
}

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	var prefs string
	var createdAt, lastSeen int64
	err := db.queryRow(ctx,
		"SELECT id, preferences, created_at, last_seen FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &prefs, &createdAt, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(prefs, &u.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if u.Preferences == nil {
		u.Preferences = map[string]interface{}{}
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.LastSeen = time.Unix(lastSeen, 0)
	return &u, nil
}

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
