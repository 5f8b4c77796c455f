package types

import (
	"encoding/json"
	"fmt"
)

// StepType enumerates the file-system mutations a generation can request.
type StepType int

const (
	StepCreateFile StepType = iota
	StepCreateFolder
	StepEditFile
	StepDeleteFile
	StepTextDisplay
)

// String returns the string representation of the step type
func (t StepType) String() string {
	switch t {
	case StepCreateFile:
		return "CreateFile"
	case StepCreateFolder:
		return "CreateFolder"
	case StepEditFile:
		return "EditFile"
	case StepDeleteFile:
		return "DeleteFile"
	case StepTextDisplay:
		return "TextDisplay"
	default:
		return fmt.Sprintf("StepType(%d)", int(t))
	}
}

// Valid reports whether t is a known step type.
func (t StepType) Valid() bool {
	return t >= StepCreateFile && t <= StepTextDisplay
}

// EditStep is one atomic mutation the caller is asked to apply.
type EditStep struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        StepType `json:"type"`
	Content     string   `json:"content"`
	Path        string   `json:"path"`
}

// GenerationResult is the ordered step list produced for one request.
// Unknown top-level keys emitted by the model are kept in Extra and written
// back out on marshal.
type GenerationResult struct {
	Steps []EditStep                 `json:"steps"`
	Extra map[string]json.RawMessage `json:"-"`
}

// NewGenerationResult returns a result with a non-nil step list.
func NewGenerationResult(steps []EditStep) *GenerationResult {
	if steps == nil {
		steps = []EditStep{}
	}
	return &GenerationResult{Steps: steps}
}

// LastID returns the highest step id, or 0 when there are no steps.
func (r *GenerationResult) LastID() int {
	return LastStepID(r.Steps)
}

// LastStepID returns the highest id in steps, or 0 when empty.
func LastStepID(steps []EditStep) int {
	last := 0
	for _, s := range steps {
		if s.ID > last {
			last = s.ID
		}
	}
	return last
}

// MarshalJSON writes steps together with any passthrough keys.
func (r GenerationResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+1)
	for k, v := range r.Extra {
		out[k] = v
	}
	steps := r.Steps
	if steps == nil {
		steps = []EditStep{}
	}
	out["steps"] = steps
	return json.Marshal(out)
}

// UnmarshalJSON reads steps strictly and keeps every other key verbatim.
func (r *GenerationResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Steps = []EditStep{}
	r.Extra = nil
	for k, v := range raw {
		if k == "steps" {
			if err := json.Unmarshal(v, &r.Steps); err != nil {
				return fmt.Errorf("failed to decode steps: %w", err)
			}
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}
	return nil
}
