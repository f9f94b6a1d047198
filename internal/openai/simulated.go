package openai

import (
	"context"
	"log"
)

// SimulatedClient is the embedding provider used when no OpenAI key is
// configured. It never fails; it reports "no embedding available" for every
// text, so entities are captured and stored without a vector and stay out of
// similarity search until re-captured with a real provider.
type SimulatedClient struct {
	dimensions int
}

func NewSimulatedClient(dimensions int) *SimulatedClient {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	log.Println("embedding provider running in simulation mode (no embeddings will be generated)")
	return &SimulatedClient{dimensions: dimensions}
}

func (c *SimulatedClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Printf("simulated embedding skipped (text length %d)", len(text))
	return nil, nil
}

func (c *SimulatedClient) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	log.Printf("simulated batch embedding skipped (%d texts)", len(texts))
	return make([][]float32, len(texts)), nil
}

func (c *SimulatedClient) Dimensions() int {
	return c.dimensions
}
