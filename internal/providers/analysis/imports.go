// Package analysis extracts import sources from JavaScript and TypeScript
// sources with tree-sitter.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// ErrUnparseable is returned when neither grammar yields a usable tree
var ErrUnparseable = errors.New("source could not be parsed")

// Analyzer extracts imports. Safe for concurrent use; tree-sitter parsers
// are pooled per grammar because a single parser is not.
type Analyzer struct {
	tsxPool *sync.Pool
	jsPool  *sync.Pool
}

// NewAnalyzer creates an analyzer with the tsx grammar and a javascript fallback
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		tsxPool: parserPool(tsx.GetLanguage()),
		jsPool:  parserPool(javascript.GetLanguage()),
	}
}

func parserPool(lang *sitter.Language) *sync.Pool {
	return &sync.Pool{
		New: func() interface{} {
			p := sitter.NewParser()
			p.SetLanguage(lang)
			return p
		},
	}
}

// Parse returns the distinct import sources of code in source order:
// static imports, re-exports, dynamic import() and require() calls.
func (a *Analyzer) Parse(ctx context.Context, code string) ([]string, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	content := []byte(code)

	imports, clean, err := a.parseWith(ctx, a.tsxPool, content)
	if err != nil {
		return nil, err
	}
	if clean {
		return imports, nil
	}

	// Plain JSX that tsx rejects (e.g. generic-looking arrows) may parse as javascript
	jsImports, jsClean, jsErr := a.parseWith(ctx, a.jsPool, content)
	if jsErr == nil && (jsClean || len(jsImports) > len(imports)) {
		return jsImports, nil
	}
	return imports, nil
}

func (a *Analyzer) parseWith(ctx context.Context, pool *sync.Pool, content []byte) ([]string, bool, error) {
	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if tree == nil {
		return nil, false, ErrUnparseable
	}
	defer tree.Close()

	root := tree.RootNode()
	return collectImports(root, content), !root.HasError(), nil
}

func collectImports(root *sitter.Node, content []byte) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(source string) {
		if source == "" || seen[source] {
			return
		}
		seen[source] = true
		out = append(out, source)
	}

	iter := sitter.NewIterator(root, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}

		switch n.Type() {
		case "import_statement", "export_statement":
			// export statements only carry a source when re-exporting
			add(statementSource(n, content))
		case "call_expression":
			add(callSource(n, content))
		}
	}
	return out
}

// statementSource returns the string literal directly under an import or
// export statement.
func statementSource(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string" {
			return unquote(child.Content(content))
		}
	}
	return ""
}

// callSource handles import("x") and require("x") with a literal argument.
func callSource(node *sitter.Node, content []byte) string {
	if node.ChildCount() < 2 {
		return ""
	}

	callee := node.Child(0)
	if callee == nil {
		return ""
	}
	isImport := callee.Type() == "import"
	isRequire := callee.Type() == "identifier" && callee.Content(content) == "require"
	if !isImport && !isRequire {
		return ""
	}

	args := node.Child(1)
	if args == nil || args.Type() != "arguments" {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == "string" {
			return unquote(child.Content(content))
		}
	}
	return ""
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
