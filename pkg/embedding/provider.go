package embedding

import "context"

// Provider defines the interface for generating text embeddings.
// Implementations must return unit-length vectors so cosine similarity can
// be computed as a plain dot product.
type Provider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
