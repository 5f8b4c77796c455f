// Package vector is a client for a records-style vector index with
// integrated embedding (Pinecone records API). Every call is scoped to a
// namespace; the service uses one namespace per user.
package vector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/monitoring"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// APIVersion is sent with every request
const APIVersion = "2025-04"

// maxUpsertBatch is the records API limit per upsert call
const maxUpsertBatch = 96

// Match is one search hit
type Match struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Record is one document to embed and store. Text is the embedded field.
type Record struct {
	ID     string
	Text   string
	Fields map[string]string
}

// Config configures the client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the vector index over HTTP
type Client struct {
	http    *httpclient.Client
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

type searchRequest struct {
	Query searchQuery `json:"query"`
}

type searchQuery struct {
	Inputs map[string]string `json:"inputs"`
	TopK   int               `json:"top_k"`
}

type searchResponse struct {
	Result struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Score  float64                `json:"_score"`
			Fields map[string]interface{} `json:"fields"`
		} `json:"hits"`
	} `json:"result"`
}

type deleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
	Namespace string   `json:"namespace"`
}

// New creates a vector index client
func New(cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Client {
	hc := httpclient.New(httpclient.Options{
		Name:    "vector",
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	hc.SetHeader("Api-Key", cfg.APIKey)
	hc.SetHeader("X-Pinecone-API-Version", APIVersion)
	hc.SetHeader("Accept", "application/json")

	return &Client{http: hc, logger: logger, metrics: metrics}
}

// Query returns the topK records most similar to text within namespace
func (c *Client) Query(ctx context.Context, namespace, text string, topK int) ([]Match, error) {
	start := time.Now()
	var out searchResponse
	_, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetBody(searchRequest{Query: searchQuery{
				Inputs: map[string]string{"text": text},
				TopK:   topK,
			}}).
			SetResult(&out).
			Post(namespacePath(namespace, "search"))
	})
	c.record("query", err, start)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	matches := make([]Match, 0, len(out.Result.Hits))
	for _, hit := range out.Result.Hits {
		matches = append(matches, Match{ID: hit.ID, Score: hit.Score, Metadata: hit.Fields})
	}
	c.logger.Debug("vector query",
		zap.String("namespace", namespace),
		zap.Int("top_k", topK),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// QueryIDs returns only the record ids of a Query, in rank order
func (c *Client) QueryIDs(ctx context.Context, namespace, text string, topK int) ([]string, error) {
	matches, err := c.Query(ctx, namespace, text, topK)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Upsert embeds and stores records, batching to the API limit
func (c *Client) Upsert(ctx context.Context, namespace string, records []Record) error {
	for start := 0; start < len(records); start += maxUpsertBatch {
		end := start + maxUpsertBatch
		if end > len(records) {
			end = len(records)
		}
		if err := c.upsertBatch(ctx, namespace, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertBatch(ctx context.Context, namespace string, records []Record) error {
	body, err := encodeNDJSON(records)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/x-ndjson").
			SetBody(body).
			Post(namespacePath(namespace, "upsert"))
	})
	c.record("upsert", err, start)
	if err != nil {
		return fmt.Errorf("vector upsert: %w", err)
	}
	c.logger.Info("vector upsert", zap.String("namespace", namespace), zap.Int("records", len(records)))
	return nil
}

// Delete removes records by id, or every record in namespace when ids is empty
func (c *Client) Delete(ctx context.Context, namespace string, ids []string) error {
	start := time.Now()
	_, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetBody(deleteRequest{IDs: ids, DeleteAll: len(ids) == 0, Namespace: namespace}).
			Post("/vectors/delete")
	})
	c.record("delete", err, start)
	if err != nil {
		return fmt.Errorf("vector delete: %w", err)
	}
	return nil
}

func (c *Client) record(op string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordVectorCall(op, status, time.Since(start))
}

func namespacePath(namespace, action string) string {
	return "/records/namespaces/" + url.PathEscape(namespace) + "/" + action
}

// encodeNDJSON writes one flat JSON object per record
func encodeNDJSON(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range records {
		obj := make(map[string]string, len(rec.Fields)+2)
		for k, v := range rec.Fields {
			obj[k] = v
		}
		obj["_id"] = rec.ID
		obj["text"] = rec.Text
		line, err := sonic.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
