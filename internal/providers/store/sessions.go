package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// ----- Sessions -----

// Codebase snapshots are stored as zstd-compressed JSON.
var (
	snapshotEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	snapshotDecoder, _ = zstd.NewReader(nil)
)

func compressCodebase(files []types.FileNode) ([]byte, error) {
	if len(files) == 0 {
		return nil, nil
	}
	raw, err := sonic.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("encode codebase: %w", err)
	}
	return snapshotEncoder.EncodeAll(raw, nil), nil
}

func decompressCodebase(blob []byte) ([]types.FileNode, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := snapshotDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress codebase: %w", err)
	}
	var files []types.FileNode
	if err := sonic.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("decode codebase: %w", err)
	}
	return files, nil
}

// CreateSession inserts a new session.
func (db *DB) CreateSession(ctx context.Context, s *types.Session) error {
	if err := db.ensureUser(ctx, s.UserID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	messages, err := encodeJSON(nonNilMessages(s.Messages))
	if err != nil {
		return err
	}
	codebase, err := compressCodebase(s.Codebase)
	if err != nil {
		return err
	}

	_, err = db.exec(ctx,
		"INSERT INTO sessions (id, user_id, messages, codebase, codebase_digest, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.UserID, messages, codebase, s.CodebaseDigest, s.CreatedAt.Unix(), s.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateSession overwrites messages and, when withCodebase is set, the
// codebase snapshot. Last write wins.
func (db *DB) UpdateSession(ctx context.Context, s *types.Session, withCodebase bool) error {
	messages, err := encodeJSON(nonNilMessages(s.Messages))
	if err != nil {
		return err
	}

	var res sql.Result
	if withCodebase {
		codebase, cerr := compressCodebase(s.Codebase)
		if cerr != nil {
			return cerr
		}
		res, err = db.exec(ctx,
			"UPDATE sessions SET messages = ?, codebase = ?, codebase_digest = ?, updated_at = ? WHERE id = ?",
			messages, codebase, s.CodebaseDigest, s.UpdatedAt.Unix(), s.ID,
		)
	} else {
		res, err = db.exec(ctx,
			"UPDATE sessions SET messages = ?, updated_at = ? WHERE id = ?",
			messages, s.UpdatedAt.Unix(), s.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSession loads a session with its decompressed codebase.
func (db *DB) GetSession(ctx context.Context, id string) (*types.Session, error) {
	var s types.Session
	var messages string
	var codebase []byte
	var createdAt, updatedAt int64
	err := db.queryRow(ctx,
		"SELECT id, user_id, messages, codebase, codebase_digest, created_at, updated_at FROM sessions WHERE id = ?",
		id,
	).Scan(&s.ID, &s.UserID, &messages, &codebase, &s.CodebaseDigest, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := decodeJSON(messages, &s.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if s.Codebase, err = decompressCodebase(codebase); err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(createdAt, 0)
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return &s, nil
}

func nonNilMessages(m []types.ChatMessage) []types.ChatMessage {
	if m == nil {
		return []types.ChatMessage{}
	}
	return m
}
