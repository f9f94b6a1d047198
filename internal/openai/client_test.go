package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingAPI mocks the upstream OpenAI embedding call
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func newTestClient(api EmbeddingAPI, dims int) *Client {
	return &Client{api: api, dimensions: dims}
}

func TestClient_GenerateEmbedding(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, 4)

	embedding := []float32{0.1, 0.2, 0.3, 0.4}
	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"hello"}).Return([][]float32{embedding}, nil)

	got, err := client.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, embedding, got)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := newTestClient(new(MockEmbeddingAPI), 4)

	_, err := client.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, 1536)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{0.1, 0.2}}, nil)

	_, err := client.GenerateEmbedding(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, 4)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	_, err := client.GenerateEmbedding(context.Background(), "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create embedding")
}

func TestClient_GenerateBatchEmbeddings(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, 2)

	texts := []string{"one", "two", "three"}
	batch := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	mockAPI.On("CreateEmbeddings", mock.Anything, texts).Return(batch, nil)

	got, err := client.GenerateBatchEmbeddings(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestClient_GenerateBatchEmbeddings_Empty(t *testing.T) {
	client := newTestClient(new(MockEmbeddingAPI), 4)

	got, err := client.GenerateBatchEmbeddings(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_Dimensions(t *testing.T) {
	assert.Equal(t, DefaultEmbeddingDimensions, NewClient("sk-test").Dimensions())
	assert.Equal(t, 3072, NewClientWithConfig(Config{APIKey: "sk-test", EmbeddingDimensions: 3072}).Dimensions())
}

func TestSimulatedClient_ReturnsNoEmbedding(t *testing.T) {
	client := NewSimulatedClient(0)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())

	vec, err := client.GenerateEmbedding(context.Background(), "anything")
	require.NoError(t, err)
	assert.Nil(t, vec, "simulation mode reports no embedding, not an error")

	batch, err := client.GenerateBatchEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Nil(t, batch[0])
	assert.Nil(t, batch[1])
}
