package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// Size limits (in bytes unless noted)
const (
	MaxQuerySize        = 16 * 1024
	MaxCodebaseSize     = 8 * 1024 * 1024
	MaxCodebaseFiles    = 2000
	MaxConversationSize = 4 * 1024 * 1024
	MaxForcedComponents = 100
	MaxIDLength         = 128
	MaxPathLength       = 1024
)

// SafeIDPattern matches session, job and user ids.
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateQuery validates a generation query
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}
	return ValidateString(query, "query", 1, MaxQuerySize, true)
}

// ValidateCodebase bounds the snapshot and rejects unusable entries.
func ValidateCodebase(files []types.FileNode) error {
	if len(files) > MaxCodebaseFiles {
		return fmt.Errorf("codebase must not exceed %d files", MaxCodebaseFiles)
	}
	total := 0
	for i, f := range files {
		if err := ValidateString(f.FilePath, fmt.Sprintf("codebase[%d].filePath", i), 1, MaxPathLength, true); err != nil {
			return err
		}
		total += len(f.FileContent)
	}
	if total > MaxCodebaseSize {
		return fmt.Errorf("codebase size %d bytes exceeds maximum %d bytes", total, MaxCodebaseSize)
	}
	return nil
}

// ValidateConversation checks roles and total size of prior turns.
func ValidateConversation(messages []types.ChatMessage) error {
	total := 0
	for i, m := range messages {
		if !m.Role.Valid() {
			return fmt.Errorf("conversation[%d] has invalid role %q", i, m.Role)
		}
		total += len(m.Content)
	}
	if total > MaxConversationSize {
		return fmt.Errorf("conversation size %d bytes exceeds maximum %d bytes", total, MaxConversationSize)
	}
	return nil
}

// ValidateComponentPaths validates forced component paths.
func ValidateComponentPaths(paths []string) error {
	if len(paths) > MaxForcedComponents {
		return fmt.Errorf("components must not exceed %d entries", MaxForcedComponents)
	}
	for i, p := range paths {
		if err := ValidateString(p, fmt.Sprintf("components[%d]", i), 1, MaxPathLength, true); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGenerateRequest runs every check that must pass before any
// external call is made.
func ValidateGenerateRequest(req types.GenerateRequest) error {
	if err := ValidateQuery(req.Query); err != nil {
		return err
	}
	if err := ValidateID(req.SessionID, "session_id", false); err != nil {
		return err
	}
	if err := ValidateCodebase(req.Codebase); err != nil {
		return err
	}
	if err := ValidateComponentPaths(req.Components); err != nil {
		return err
	}
	return ValidateConversation(req.Conversation)
}

// ValidateGitHubURL accepts https://github.com/<owner>/<repo> links.
func ValidateGitHubURL(raw string) (owner, repo string, err error) {
	if !strings.HasPrefix(raw, "https://github.com/") {
		return "", "", fmt.Errorf("github_url must start with https://github.com/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid github_url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("github_url must name an owner and a repository")
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
