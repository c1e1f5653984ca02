package interfaces

import "context"

// EmbeddingService produces dense vectors for capsule and specialty
// texts. Vectors are dimension-stable for the life of the index.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
