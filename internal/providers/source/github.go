package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultGitHubAPI is the public API root
const DefaultGitHubAPI = "https://api.github.com"

// GitHub walks a repository through the contents API
type GitHub struct {
	owner       string
	repo        string
	repoURL     string
	maxFileSize int64
	http        *httpclient.Client
	logger      *zap.Logger
}

// GitHubOptions configures a GitHub source
type GitHubOptions struct {
	APIBase     string
	Token       string
	MaxFileSize int64
}

type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// NewGitHub creates a source for repoURL (https://github.com/owner/repo)
func NewGitHub(repoURL string, opts GitHubOptions, logger *zap.Logger) (*GitHub, error) {
	owner, repo, err := utils.ValidateGitHubURL(repoURL)
	if err != nil {
		return nil, err
	}
	if opts.APIBase == "" {
		opts.APIBase = DefaultGitHubAPI
	}

	hc := httpclient.New(httpclient.Options{
		Name:    "github",
		BaseURL: opts.APIBase,
		Timeout: 30 * time.Second,
		// Unauthenticated API allows 60 requests per hour; stay polite
		RateLimit: 10,
	})
	hc.SetHeader("Accept", "application/vnd.github+json")
	if opts.Token != "" {
		hc.SetHeader("Authorization", "token "+opts.Token)
	}

	return &GitHub{
		owner:       owner,
		repo:        repo,
		repoURL:     repoURL,
		maxFileSize: opts.MaxFileSize,
		http:        hc,
		logger:      logger,
	}, nil
}

// Name returns the repository URL
func (g *GitHub) Name() string { return g.repoURL }

// List fetches every ingestible file, depth first
func (g *GitHub) List(ctx context.Context) ([]types.FileNode, error) {
	var files []types.FileNode
	if err := g.walk(ctx, "", &files); err != nil {
		return nil, err
	}
	g.logger.Info("fetched repository",
		zap.String("owner", g.owner),
		zap.String("repo", g.repo),
		zap.Int("files", len(files)),
	)
	return files, nil
}

func (g *GitHub) walk(ctx context.Context, dir string, files *[]types.FileNode) error {
	var items []contentItem
	_, err := g.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&items).Get(g.contentsPath(dir))
	})
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch item.Type {
		case "dir":
			if SkipDir(item.Name) {
				continue
			}
			if err := g.walk(ctx, item.Path, files); err != nil {
				return err
			}
		case "file":
			if !Ingestible(item.Path) || item.DownloadURL == "" {
				continue
			}
			if g.maxFileSize > 0 && item.Size > g.maxFileSize {
				g.logger.Debug("skipping large file", zap.String("path", item.Path), zap.Int64("size", item.Size))
				continue
			}
			content, err := g.download(ctx, item.DownloadURL)
			if err != nil {
				return fmt.Errorf("download %s: %w", item.Path, err)
			}
			*files = append(*files, types.FileNode{
				FileName:    item.Name,
				FilePath:    item.Path,
				FileContent: content,
			})
		}
	}
	return nil
}

func (g *GitHub) download(ctx context.Context, rawURL string) (string, error) {
	resp, err := g.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Accept", "application/vnd.github.raw").Get(rawURL)
	})
	if err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

func (g *GitHub) contentsPath(dir string) string {
	p := "/repos/" + url.PathEscape(g.owner) + "/" + url.PathEscape(g.repo) + "/contents"
	if dir != "" {
		segments := strings.Split(dir, "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		p += "/" + strings.Join(segments, "/")
	}
	return p
}
