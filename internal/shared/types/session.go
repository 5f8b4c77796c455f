package types

import "time"

// Session is the persisted conversation state of one user.
type Session struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Messages       []ChatMessage `json:"messages"`
	Codebase       []FileNode    `json:"codebase"`
	CodebaseDigest string        `json:"codebase_digest,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// User owns a component namespace and sessions.
type User struct {
	ID          string                 `json:"user_id"`
	CreatedAt   time.Time              `json:"created_at"`
	LastSeen    time.Time              `json:"last_seen"`
	Preferences map[string]interface{} `json:"preferences"`
}
