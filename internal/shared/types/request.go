package types

// GenerateRequest is the body of a generation call.
type GenerateRequest struct {
	Query             string        `json:"query" binding:"required"`
	SessionID         string        `json:"session_id,omitempty"`
	Codebase          []FileNode    `json:"codebase,omitempty"`
	Components        []string      `json:"components,omitempty"`
	Conversation      []ChatMessage `json:"conversation,omitempty"`
	EnableAISelection *bool         `json:"enable_ai_selection,omitempty"`
}

// AISelection returns the effective AI selection flag (default on).
func (r GenerateRequest) AISelection() bool {
	return r.EnableAISelection == nil || *r.EnableAISelection
}

// GenerateContext summarizes the grounding used for a generation.
type GenerateContext struct {
	ComponentsUsed int    `json:"components_used"`
	Query          string `json:"query"`
}

// GenerateResponse is the success payload of a generation call.
type GenerateResponse struct {
	Status        string            `json:"status"`
	SessionID     string            `json:"session_id"`
	GeneratedCode *GenerationResult `json:"generated_code"`
	Conversation  []ChatMessage     `json:"conversation"`
	Context       GenerateContext   `json:"context"`
}

// QueryRequest is a raw vector search request.
type QueryRequest struct {
	QueryText string `json:"query_text" binding:"required"`
	TopK      int    `json:"top_k,omitempty"`
}

// TrainRequest starts repository ingestion.
type TrainRequest struct {
	GitHubURL   string `json:"github_url" binding:"required"`
	AccessToken string `json:"access_token,omitempty"`
}

// StreamEvent is one frame sent over the generation websocket.
type StreamEvent struct {
	Type      string            `json:"type"`
	Stage     string            `json:"stage,omitempty"`
	Result    *GenerateResponse `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	Timestamp int64             `json:"timestamp"`
}
