package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// ----- Design files and manifests -----

// SaveDesignFiles replaces the stored content of each design file.
func (db *DB) SaveDesignFiles(ctx context.Context, userID string, files []types.DesignFile) error {
	if len(files) == 0 {
		return nil
	}
	if err := db.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	q := db.rebind(`INSERT INTO design_files (user_id, path, content, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, path) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`)

	now := time.Now().Unix()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, f := range files {
			if _, err := tx.ExecContext(ctx, q, userID, f.Path, f.Content, now); err != nil {
				return fmt.Errorf("save design file %s: %w", f.Path, err)
			}
		}
		return nil
	})
}

// SaveManifest stores the user's single project manifest.
func (db *DB) SaveManifest(ctx context.Context, userID string, m *types.Manifest) error {
	if m == nil {
		return nil
	}
	if err := db.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	deps, err := encodeJSON(m.Dependencies)
	if err != nil {
		return err
	}
	devDeps, err := encodeJSON(m.DevDependencies)
	if err != nil {
		return err
	}
	scripts, err := encodeJSON(m.Scripts)
	if err != nil {
		return err
	}

	_, err = db.exec(ctx, `INSERT INTO manifests
		(user_id, path, name, version, dependencies, dev_dependencies, scripts, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			path = excluded.path,
			name = excluded.name,
			version = excluded.version,
			dependencies = excluded.dependencies,
			dev_dependencies = excluded.dev_dependencies,
			scripts = excluded.scripts,
			content = excluded.content,
			updated_at = excluded.updated_at`,
		userID, m.Path, m.Name, m.Version, deps, devDeps, scripts, m.Content, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// FetchManifestAndDesignTokens returns the user's manifest (nil when none
// was ingested) and every design file ordered by path.
func (db *DB) FetchManifestAndDesignTokens(ctx context.Context, userID string) (*types.Manifest, []types.DesignFile, error) {
	manifest, err := db.getManifest(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	rows, err := db.query(ctx, "SELECT path, content FROM design_files WHERE user_id = ? ORDER BY path", userID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch design files: %w", err)
	}
	defer rows.Close()

	var files []types.DesignFile
	for rows.Next() {
		var f types.DesignFile
		if err := rows.Scan(&f.Path, &f.Content); err != nil {
			return nil, nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return manifest, files, nil
}

func (db *DB) getManifest(ctx context.Context, userID string) (*types.Manifest, error) {
	var m types.Manifest
	var deps, devDeps, scripts string
	err := db.queryRow(ctx,
		"SELECT path, name, version, dependencies, dev_dependencies, scripts, content FROM manifests WHERE user_id = ?",
		userID,
	).Scan(&m.Path, &m.Name, &m.Version, &deps, &devDeps, &scripts, &m.Content)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	if err := decodeJSON(deps, &m.Dependencies); err != nil {
		return nil, err
	}
	if err := decodeJSON(devDeps, &m.DevDependencies); err != nil {
		return nil, err
	}
	if err := decodeJSON(scripts, &m.Scripts); err != nil {
		return nil, err
	}
	return &m, nil
}
