package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// ----- Components -----

const componentColumns = "path, name, description, use_case, input_props, dependencies, code_samples, code"

// FetchByPaths returns the user's components whose path is in paths. Results
// follow the order of paths; unknown paths are skipped.
func (db *DB) FetchByPaths(ctx context.Context, userID string, paths []string) ([]types.ComponentDescriptor, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(paths)+1)
	args = append(args, userID)
	for _, p := range paths {
		args = append(args, p)
	}

	rows, err := db.query(ctx,
		"SELECT "+componentColumns+" FROM components WHERE user_id = ? AND path IN ("+placeholders(len(paths))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch components: %w", err)
	}
	defer rows.Close()

	byPath := make(map[string]types.ComponentDescriptor, len(paths))
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		byPath[c.Path] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]types.ComponentDescriptor, 0, len(byPath))
	seen := make(map[string]bool, len(byPath))
	for _, p := range paths {
		c, ok := byPath[p]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, c)
	}
	return out, nil
}

// ListComponentPaths returns every component path in the user's namespace.
func (db *DB) ListComponentPaths(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.query(ctx, "SELECT path FROM components WHERE user_id = ? ORDER BY path", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteComponents removes the user's components at paths.
func (db *DB) DeleteComponents(ctx context.Context, userID string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(paths)+1)
	args = append(args, userID)
	for _, p := range paths {
		args = append(args, p)
	}
	if _, err := db.exec(ctx,
		"DELETE FROM components WHERE user_id = ? AND path IN ("+placeholders(len(paths))+")",
		args...,
	); err != nil {
		return fmt.Errorf("delete components: %w", err)
	}
	return nil
}

// UpsertComponents inserts or replaces components in one transaction.
func (db *DB) UpsertComponents(ctx context.Context, userID string, components []types.ComponentDescriptor) error {
	if len(components) == 0 {
		return nil
	}
	if err := db.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	q := db.rebind(`INSERT INTO components
		(user_id, path, name, description, use_case, input_props, dependencies, code_samples, code, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, path) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			use_case = excluded.use_case,
			input_props = excluded.input_props,
			dependencies = excluded.dependencies,
			code_samples = excluded.code_samples,
			code = excluded.code,
			updated_at = excluded.updated_at`)

	now := time.Now().Unix()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range components {
			deps, err := encodeJSON(nonNil(c.Dependencies))
			if err != nil {
				return err
			}
			samples, err := encodeJSON(nonNil(c.CodeSamples))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q,
				userID, c.Path, c.Name, c.Description, c.UseCase, c.InputProps, deps, samples, c.Code, now,
			); err != nil {
				return fmt.Errorf("upsert component %s: %w", c.Path, err)
			}
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanComponent(s scanner) (types.ComponentDescriptor, error) {
	var c types.ComponentDescriptor
	var deps, samples string
	if err := s.Scan(&c.Path, &c.Name, &c.Description, &c.UseCase, &c.InputProps, &deps, &samples, &c.Code); err != nil {
		return c, err
	}
	if err := decodeJSON(deps, &c.Dependencies); err != nil {
		return c, fmt.Errorf("decode dependencies of %s: %w", c.Path, err)
	}
	if err := decodeJSON(samples, &c.CodeSamples); err != nil {
		return c, fmt.Errorf("decode code samples of %s: %w", c.Path, err)
	}
	return c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
