package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Local walks a directory on disk
type Local struct {
	root        string
	maxFileSize int64
	logger      *zap.Logger
}

// NewLocal creates a source rooted at dir
func NewLocal(dir string, maxFileSize int64, logger *zap.Logger) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Local{root: abs, maxFileSize: maxFileSize, logger: logger}, nil
}

// Name returns the absolute root directory
func (l *Local) Name() string { return l.root }

// List reads every ingestible text file under the root. Results are sorted
// by path since fastwalk visits in parallel.
func (l *Local) List(ctx context.Context) ([]types.FileNode, error) {
	var (
		mu    sync.Mutex
		files []types.FileNode
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, l.root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != l.root && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !Ingestible(rel) {
			return nil
		}

		content, ok := l.read(p)
		if !ok {
			return nil
		}

		mu.Lock()
		files = append(files, types.FileNode{
			FileName:    d.Name(),
			FilePath:    rel,
			FileContent: content,
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FilePath < files[j].FilePath })
	return files, nil
}

// read returns the file as UTF-8 text, or false for large or binary files
func (l *Local) read(p string) (string, bool) {
	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		l.logger.Debug("skipping large file", zap.String("path", p), zap.Int64("size", info.Size()))
		return "", false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	if len(data) == 0 {
		return "", true
	}
	if !isText(data) {
		l.logger.Debug("skipping binary file", zap.String("path", p))
		return "", false
	}
	return toUTF8(data), true
}

func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// toUTF8 transcodes data when chardet is confident it is not UTF-8
func toUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	enc, _ := charset.Lookup(result.Charset)
	if enc == nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(decoded)
}
