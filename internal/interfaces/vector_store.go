package interfaces

import (
	"context"

	"github.com/ternarybob/aptus/internal/models"
)

// VectorQuery describes one query-by-vector call. Filter is a metadata
// expression in the store's native form ($eq, $in, $and); omitted
// dimensions are unconstrained. Phase is the channel-qualified tag
// carried into store failure details.
type VectorQuery struct {
	Vector    []float32
	TopK      int
	Filter    map[string]interface{}
	Namespace string
	Phase     string
}

// VectorStore is the typed contract over the external vector index.
// Implementations retry transient failures and translate store errors
// into the domain error taxonomy with a phase tag.
type VectorStore interface {
	// Upsert writes vectors; same id overwrites. Vector length must equal
	// the configured dimension.
	Upsert(ctx context.Context, namespace string, records []models.VectorRecord) error

	// Fetch returns the records found for ids; missing ids are simply
	// absent from the result map. The phase tag identifies the caller in
	// store failure details.
	Fetch(ctx context.Context, namespace string, ids []string, phase string) (map[string]models.VectorRecord, error)

	// Query returns matches ordered by descending score.
	Query(ctx context.Context, q VectorQuery) ([]models.QueryMatch, error)

	// UpdateMetadata partially overwrites metadata on each id; keys absent
	// from the patch are preserved.
	UpdateMetadata(ctx context.Context, namespace string, ids []string, patch map[string]interface{}) error

	// Delete removes the given ids. Deleting unknown ids is not an error.
	Delete(ctx context.Context, namespace string, ids []string) error
}
