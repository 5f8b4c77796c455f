// Package session manages generation conversations.
//
// A session holds the ordered messages exchanged with the model and the last
// codebase snapshot the caller sent. Every change is written to the store;
// memory only keeps the owner and codebase digest of recently used sessions.
//
// Components:
//   - Manager: create, resolve, update and load sessions
//   - Bounded cache keyed by session id, evicted by idle TTL and LRU
//   - Codebase digests so unchanged snapshots are not rewritten
//
// Concurrency:
//
// There is no per-session lock. Two requests updating the same session
// race and the last write wins.
//
// Example Usage:
//
//	manager := session.NewManager(db, session.DefaultOptions(), logger)
//	id, err := manager.Resolve(ctx, req.SessionID, userID)
//	err = manager.Update(ctx, id, messages, codebase)
package session
