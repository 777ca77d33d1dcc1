package pipeline

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-genremap/pkg/config"
	"github.com/dd0wney/cluso-genremap/pkg/embedding"
	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/reduction"
)

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmbedderConfig
		wantType any
		model    string
	}{
		{"ollama", config.EmbedderConfig{Provider: config.ProviderOllama, URL: "http://localhost:11434", Model: "all-minilm", Timeout: time.Second}, &embedding.ResilientEncoder{}, "all-minilm"},
		{"openai", config.EmbedderConfig{Provider: config.ProviderOpenAI, URL: "https://api.openai.com", Model: "text-embedding-3-small", APIKey: "k"}, &embedding.ResilientEncoder{}, "text-embedding-3-small"},
		{"hashing", config.EmbedderConfig{Provider: config.ProviderHashing, Dimensions: 64}, &embedding.HashingEncoder{}, "hashing-64"},
		{"batched ollama", config.EmbedderConfig{Provider: config.ProviderOllama, URL: "http://localhost:11434", Model: "all-minilm", Timeout: time.Second, BatchSize: 32, Concurrency: 2}, &embedding.BatchEncoder{}, "all-minilm"},
		{"hashing ignores batching", config.EmbedderConfig{Provider: config.ProviderHashing, Dimensions: 8, BatchSize: 4}, &embedding.HashingEncoder{}, "hashing-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, enc)
			assert.Equal(t, tt.model, enc.Model())
		})
	}

	_, err := NewEncoder(config.EmbedderConfig{Provider: "word2vec"})
	assert.True(t, errors.Is(err, genre.ErrConfiguration))
}

func TestNewProjector(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &reduction.TSNE{}, NewProjector(cfg, rand.New(rand.NewSource(1))))

	cfg.Reducer = config.ReducerPCA
	assert.IsType(t, reduction.PCA{}, NewProjector(cfg, nil))
}
