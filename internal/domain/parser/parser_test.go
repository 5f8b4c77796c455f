package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

func TestParseObject(t *testing.T) {
	p := New(nil)

	raw := `Here you go:
{"steps":[{"id":1,"title":"Create App","type":0,"content":"export default 1","path":"src/App.tsx"}],"summary":"done"}
Enjoy!`
	r, err := p.Parse(raw)
	require.NoError(t, err)
	require.Len(t, r.Steps, 1)
	assert.Equal(t, "src/App.tsx", r.Steps[0].Path)
	assert.Equal(t, types.StepCreateFile, r.Steps[0].Type)
	assert.JSONEq(t, `"done"`, string(r.Extra["summary"]))
}

func TestParseBareArray(t *testing.T) {
	r, err := New(nil).Parse(`  [{"id":1,"title":"t","type":2,"content":"x","path":"src/a.ts"}]  `)
	require.NoError(t, err)
	require.Len(t, r.Steps, 1)
	assert.Equal(t, types.StepEditFile, r.Steps[0].Type)
	assert.Nil(t, r.Extra)
}

func TestParseFenced(t *testing.T) {
	raw := "```json\n[{\"id\":3,\"title\":\"t\",\"type\":1,\"content\":\"\",\"path\":\"src/lib\"}]\n```"
	r, err := New(nil).Parse(raw)
	require.NoError(t, err)
	require.Len(t, r.Steps, 1)
	assert.Equal(t, 3, r.Steps[0].ID)
	assert.Equal(t, types.StepCreateFolder, r.Steps[0].Type)
}

func TestParseFallbacks(t *testing.T) {
	p := New(nil)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"plain text", "I cannot do that.", ErrNoJSON},
		{"empty", "", ErrNoJSON},
		{"broken object", `{"steps": [`, ErrNoJSON},
		{"object without steps", `{"files": []}`, ErrNoSteps},
		{"steps not array", `{"steps": "none"}`, ErrNoSteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.Parse(tt.raw)
			require.NotNil(t, r)
			assert.Empty(t, r.Steps)
			assert.NotNil(t, r.Steps)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseSkipsMalformedSteps(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := New(zap.New(core))

	raw := `{"steps":[
		{"id":1,"title":"ok","type":0,"content":"a","path":"src/a.ts"},
		{"id":2,"title":"bad type","type":9,"content":"b","path":"src/b.ts"},
		"not an object",
		{"id":4,"title":"no path","type":0,"content":"c"},
		{"id":5,"title":"named","type":"EditFile","content":"d","path":"src/d.ts"}
	]}`
	r, err := p.Parse(raw)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 3, stepErr.Dropped)
	assert.Equal(t, 5, stepErr.Total)

	require.Len(t, r.Steps, 2)
	assert.Equal(t, 1, r.Steps[0].ID)
	assert.Equal(t, types.StepEditFile, r.Steps[1].Type)
	assert.Equal(t, 3, logs.FilterMessage("Dropping malformed step").Len())
}

func TestParseAssignsMissingIDs(t *testing.T) {
	raw := `{"steps":[
		{"title":"a","type":0,"content":"","path":"src/a.ts"},
		{"id":"7","title":"b","type":"0","content":"","path":"src/b.ts"},
		{"title":"c","type":4,"content":"hello"}
	]}`
	r, err := New(nil).Parse(raw)
	require.NoError(t, err)
	require.Len(t, r.Steps, 3)
	assert.Equal(t, 8, r.Steps[0].ID)
	assert.Equal(t, 7, r.Steps[1].ID)
	assert.Equal(t, 9, r.Steps[2].ID)
}

func TestParseKeepsTextDisplayVerbatim(t *testing.T) {
	raw := `{"steps":[
		{"id":1,"title":"note","type":4,"content":"Wrap the form in <Card> and use Array<string> when a < b & c > d","path":"ignored"},
		{"id":2,"title":"file","type":0,"content":"<script>keep()</script>","path":"index.html"}
	]}`
	r, err := New(nil).Parse(raw)
	require.NoError(t, err)
	require.Len(t, r.Steps, 2)

	assert.Equal(t, "Wrap the form in <Card> and use Array<string> when a < b & c > d", r.Steps[0].Content)
	assert.Empty(t, r.Steps[0].Path)
	assert.Equal(t, "<script>keep()</script>", r.Steps[1].Content)
}

func TestParseRequiresTitleAndContent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := New(zap.New(core))

	raw := `[
		{"id":1,"type":0,"content":"a","path":"src/a.ts"},
		{"id":2,"title":"  ","type":0,"content":"b","path":"src/b.ts"},
		{"id":3,"title":"no content","type":2,"path":"src/c.ts"},
		{"id":4,"title":"null content","type":4,"content":null},
		{"id":5,"title":"empty folder","type":1,"content":"","path":"src/lib"}
	]`
	r, err := p.Parse(raw)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 4, stepErr.Dropped)
	assert.Equal(t, 5, stepErr.Total)

	require.Len(t, r.Steps, 1)
	assert.Equal(t, 5, r.Steps[0].ID)
	assert.Equal(t, "", r.Steps[0].Content)
	assert.Equal(t, 4, logs.FilterMessage("Dropping malformed step").Len())
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, "plain", stripFences("plain"))
}
