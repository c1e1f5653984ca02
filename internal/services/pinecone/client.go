package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

// Phase tags carried in STORE_FAILURE details. Fetch and query phases
// are channel-qualified by the caller.
const (
	PhaseFetchJob    = "fetch.job"
	PhaseFetchUser   = "fetch.user"
	PhaseQueryDomain = "query.domain"
	PhaseQueryTask   = "query.task"
)

// Client is the typed adapter over the Pinecone data-plane REST API.
// It validates vector dimensions, retries transient failures, and
// translates store errors into the domain taxonomy with a phase tag.
type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
	dimension  int
	logger     arbor.ILogger
}

// NewClient builds a client from configuration. When no explicit host is
// configured, the legacy environment form is combined with the index
// name into a data-plane endpoint.
func NewClient(cfg *common.PineconeConfig, dimension int, timeout time.Duration, logger arbor.ILogger) (*Client, error) {
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		if cfg.Environment == "" || cfg.Index == "" {
			return nil, fmt.Errorf("pinecone host or (index, environment) pair is required")
		}
		host = fmt.Sprintf("https://%s.svc.%s.pinecone.io", cfg.Index, cfg.Environment)
	}
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		host:       host,
		apiKey:     cfg.APIKey,
		dimension:  dimension,
		logger:     logger,
	}, nil
}

var _ interfaces.VectorStore = (*Client)(nil)

type upsertRequest struct {
	Vectors   []models.VectorRecord `json:"vectors"`
	Namespace string                `json:"namespace,omitempty"`
}

type fetchResponse struct {
	Vectors map[string]models.VectorRecord `json:"vectors"`
}

type queryRequest struct {
	Vector          []float32              `json:"vector"`
	TopK            int                    `json:"topK"`
	Filter          map[string]interface{} `json:"filter,omitempty"`
	Namespace       string                 `json:"namespace,omitempty"`
	IncludeMetadata bool                   `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []models.QueryMatch `json:"matches"`
}

type updateRequest struct {
	ID          string                 `json:"id"`
	SetMetadata map[string]interface{} `json:"setMetadata"`
	Namespace   string                 `json:"namespace,omitempty"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

// Upsert writes vectors into the index. Same id overwrites. Every vector
// must match the configured dimension.
func (c *Client) Upsert(ctx context.Context, namespace string, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if len(rec.Values) != c.dimension {
			return common.NewError(common.CodeValidation,
				fmt.Sprintf("invalid vector %s: dimension %d, expected %d", rec.ID, len(rec.Values), c.dimension)).
				WithDetail("reason", "INVALID_VECTOR")
		}
	}

	return c.post(ctx, "/vectors/upsert", upsertRequest{Vectors: records, Namespace: namespace}, nil, "upsert")
}

// Fetch returns found records keyed by id; missing ids are absent.
func (c *Client) Fetch(ctx context.Context, namespace string, ids []string, phase string) (map[string]models.VectorRecord, error) {
	if len(ids) == 0 {
		return map[string]models.VectorRecord{}, nil
	}
	if phase == "" {
		phase = "fetch"
	}

	params := url.Values{}
	for _, id := range ids {
		params.Add("ids", id)
	}
	if namespace != "" {
		params.Set("namespace", namespace)
	}

	var resp fetchResponse
	if err := c.get(ctx, "/vectors/fetch?"+params.Encode(), &resp, phase); err != nil {
		return nil, err
	}
	if resp.Vectors == nil {
		return map[string]models.VectorRecord{}, nil
	}
	return resp.Vectors, nil
}

// Query runs a similarity search; matches come back ordered by
// descending score with metadata included.
func (c *Client) Query(ctx context.Context, q interfaces.VectorQuery) ([]models.QueryMatch, error) {
	phase := q.Phase
	if phase == "" {
		phase = "query"
	}

	var resp queryResponse
	req := queryRequest{
		Vector:          q.Vector,
		TopK:            q.TopK,
		Filter:          q.Filter,
		Namespace:       q.Namespace,
		IncludeMetadata: true,
	}
	if err := c.post(ctx, "/query", req, &resp, phase); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// UpdateMetadata applies a partial metadata overwrite to each id. The
// store's update endpoint is single-id, so this loops; a failure aborts
// with the failing id in the error detail.
func (c *Client) UpdateMetadata(ctx context.Context, namespace string, ids []string, patch map[string]interface{}) error {
	for _, id := range ids {
		req := updateRequest{ID: id, SetMetadata: patch, Namespace: namespace}
		if err := c.post(ctx, "/vectors/update", req, nil, "update_metadata"); err != nil {
			return common.AsError(err).WithDetail("vector_id", id)
		}
	}
	return nil
}

// Delete removes ids from the index; unknown ids are ignored by the
// store.
func (c *Client) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, "/vectors/delete", deleteRequest{IDs: ids, Namespace: namespace}, nil, "delete")
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}, phase string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return common.WrapError(common.CodeStoreFailure, "failed to encode store request", err).WithDetail("phase", phase)
	}
	return c.do(ctx, http.MethodPost, path, payload, out, phase)
}

func (c *Client) get(ctx context.Context, path string, out interface{}, phase string) error {
	return c.do(ctx, http.MethodGet, path, nil, out, phase)
}

// do executes one request with retries on 429/5xx and transient network
// errors, then decodes the response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}, phase string) error {
	start := time.Now()

	err := withRetries(ctx, func() (bool, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
		if err != nil {
			return false, err
		}
		req.Header.Set("Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retryableNetErr(err), err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return true, err
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("store returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
			return retryableStatus(resp.StatusCode), err
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return false, fmt.Errorf("failed to decode store response: %w", err)
			}
		}
		return false, nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Str("phase", phase).
			Str("path", path).
			Dur("duration", time.Since(start)).
			Msg("Vector store call failed")
		return common.WrapError(common.CodeStoreFailure, "vector store call failed", err).WithDetail("phase", phase)
	}

	c.logger.Debug().
		Str("phase", phase).
		Dur("duration", time.Since(start)).
		Msg("Vector store call completed")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
