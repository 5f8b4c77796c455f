package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

var (
	// ErrNoJSON is reported when the output holds no decodable JSON
	ErrNoJSON = errors.New("no JSON payload in model output")
	// ErrNoSteps is reported when the payload has no step list
	ErrNoSteps = errors.New("model output has no steps")
)

// StepError reports steps that were dropped while decoding
type StepError struct {
	Dropped int
	Total   int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("dropped %d of %d malformed steps", e.Dropped, e.Total)
}

// Parser decodes model output into edit steps
type Parser struct {
	logger *zap.Logger
}

// New creates a parser
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse decodes raw. The result is never nil.
func (p *Parser) Parse(raw string) (*types.GenerationResult, error) {
	text := stripFences(strings.TrimSpace(raw))

	if strings.HasPrefix(text, "[") {
		var items []json.RawMessage
		if err := sonic.UnmarshalString(text, &items); err == nil {
			steps, err := p.decodeSteps(items)
			return types.NewGenerationResult(steps), err
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return types.NewGenerationResult(nil), ErrNoJSON
	}

	var fields map[string]json.RawMessage
	if err := sonic.UnmarshalString(text[start:end+1], &fields); err != nil {
		return types.NewGenerationResult(nil), fmt.Errorf("%w: %v", ErrNoJSON, err)
	}

	rawSteps, ok := fields["steps"]
	if !ok {
		return types.NewGenerationResult(nil), ErrNoSteps
	}
	var items []json.RawMessage
	if err := sonic.Unmarshal(rawSteps, &items); err != nil {
		return types.NewGenerationResult(nil), fmt.Errorf("%w: steps is not an array", ErrNoSteps)
	}

	steps, err := p.decodeSteps(items)
	result := types.NewGenerationResult(steps)
	delete(fields, "steps")
	if len(fields) > 0 {
		result.Extra = fields
	}
	return result, err
}

// wireStep is the lenient shape models actually emit
type wireStep struct {
	ID          json.RawMessage `json:"id"`
	Title       *string         `json:"title"`
	Description string          `json:"description"`
	Type        json.RawMessage `json:"type"`
	Content     *string         `json:"content"`
	Path        string          `json:"path"`
}

func (p *Parser) decodeSteps(items []json.RawMessage) ([]types.EditStep, error) {
	steps := make([]types.EditStep, 0, len(items))
	dropped := 0

	for i, item := range items {
		step, err := p.decodeStep(item)
		if err != nil {
			dropped++
			p.logger.Warn("Dropping malformed step",
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		steps = append(steps, step)
	}

	// Fill missing ids after the highest id the model did provide
	next := types.LastStepID(steps) + 1
	for i := range steps {
		if steps[i].ID < 0 {
			steps[i].ID = next
			next++
		}
	}

	if dropped > 0 {
		return steps, &StepError{Dropped: dropped, Total: len(items)}
	}
	return steps, nil
}

func (p *Parser) decodeStep(item json.RawMessage) (types.EditStep, error) {
	var w wireStep
	if err := sonic.Unmarshal(item, &w); err != nil {
		return types.EditStep{}, err
	}

	stepType, err := decodeType(w.Type)
	if err != nil {
		return types.EditStep{}, err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return types.EditStep{}, err
	}

	// content may be empty but must be present
	if w.Title == nil || strings.TrimSpace(*w.Title) == "" {
		return types.EditStep{}, fmt.Errorf("%s step without title", stepType)
	}
	if w.Content == nil {
		return types.EditStep{}, fmt.Errorf("%s step without content", stepType)
	}

	step := types.EditStep{
		ID:          id,
		Title:       *w.Title,
		Description: w.Description,
		Type:        stepType,
		Content:     *w.Content,
		Path:        strings.TrimSpace(w.Path),
	}

	if stepType == types.StepTextDisplay {
		step.Path = ""
	} else if step.Path == "" {
		return types.EditStep{}, fmt.Errorf("%s step without path", stepType)
	}
	return step, nil
}

// decodeType accepts the numeric code or the type name
func decodeType(raw json.RawMessage) (types.StepType, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing step type")
	}

	var n int
	if err := sonic.Unmarshal(raw, &n); err == nil {
		t := types.StepType(n)
		if !t.Valid() {
			return 0, fmt.Errorf("unknown step type %d", n)
		}
		return t, nil
	}

	var name string
	if err := sonic.Unmarshal(raw, &name); err != nil {
		return 0, fmt.Errorf("invalid step type %s", string(raw))
	}
	if n, err := strconv.Atoi(name); err == nil {
		return decodeType(json.RawMessage(strconv.Itoa(n)))
	}
	for t := types.StepCreateFile; t <= types.StepTextDisplay; t++ {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown step type %q", name)
}

// decodeID returns -1 when the model left the id out
func decodeID(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return -1, nil
	}
	var n int
	if err := sonic.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid step id %s", string(raw))
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid step id %q", s)
	}
	return n, nil
}

// stripFences removes a surrounding ```json ... ``` block
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
