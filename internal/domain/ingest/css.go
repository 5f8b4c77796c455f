package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	cssClassRe      = regexp.MustCompile(`\.([a-zA-Z0-9_-]+)\s*{([^}]+)}`)
	cssCustomPropRe = regexp.MustCompile(`--([a-zA-Z0-9_-]+)\s*:`)
	cssMediaRe      = regexp.MustCompile(`@media\s+([^{]+)\s*{([^}]+)}`)
	cssKeyframesRe  = regexp.MustCompile(`@keyframes\s+([a-zA-Z0-9_-]+)\s*{([^}]+)}`)
)

// CSSClass is one class rule found in a stylesheet
type CSSClass struct {
	Name       string `json:"name"`
	Properties string `json:"properties"`
}

// CSSSummary describes the design vocabulary of one stylesheet
type CSSSummary struct {
	Path             string     `json:"file_path"`
	Classes          []CSSClass `json:"classes"`
	CustomProperties []string   `json:"custom_properties"`
	MediaQueries     []string   `json:"media_queries"`
	Animations       []string   `json:"animations"`
}

// ParseCSS extracts classes, custom properties, media queries and keyframes
func ParseCSS(path, content string) CSSSummary {
	s := CSSSummary{Path: path}

	for _, m := range cssClassRe.FindAllStringSubmatch(content, -1) {
		s.Classes = append(s.Classes, CSSClass{Name: m[1], Properties: strings.TrimSpace(m[2])})
	}
	for _, m := range cssCustomPropRe.FindAllStringSubmatch(content, -1) {
		s.CustomProperties = append(s.CustomProperties, m[1])
	}
	for _, m := range cssMediaRe.FindAllStringSubmatch(content, -1) {
		s.MediaQueries = append(s.MediaQueries, strings.TrimSpace(m[1]))
	}
	for _, m := range cssKeyframesRe.FindAllStringSubmatch(content, -1) {
		s.Animations = append(s.Animations, m[1])
	}
	return s
}

// Text renders the summary as one line for embedding
func (s CSSSummary) Text() string {
	names := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		names[i] = c.Name
	}
	return strings.Join([]string{
		"CSS file " + s.Path,
		fmt.Sprintf("Contains %d classes: %s", len(s.Classes), strings.Join(names, ", ")),
		"Custom properties: " + strings.Join(s.CustomProperties, ", "),
		"Media queries: " + strings.Join(s.MediaQueries, ", "),
		"Animations: " + strings.Join(s.Animations, ", "),
	}, " ")
}
