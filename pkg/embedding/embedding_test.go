package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
)

type stubEncoder struct {
	got     []string
	vectors [][]float64
	err     error
}

func (s *stubEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	s.got = texts
	return s.vectors, s.err
}

func (s *stubEncoder) Model() string { return "stub" }

var testRecords = []genre.Record{
	{ID: 10, Name: "shoegaze", Description: "dreamy guitars"},
	{ID: 3, Name: "gabber", Description: "fast kicks"},
}

func TestEmbedPreservesOrder(t *testing.T) {
	enc := &stubEncoder{vectors: [][]float64{{1, 0}, {0, 1}}}

	res, err := Embed(context.Background(), enc, testRecords)
	require.NoError(t, err)

	assert.Equal(t, []string{"shoegaze: dreamy guitars", "gabber: fast kicks"}, enc.got)
	assert.Equal(t, []string{"shoegaze", "gabber"}, res.Names)
	assert.Equal(t, []int{10, 3}, res.IDs)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, res.Vectors)
	assert.Equal(t, 2, res.Len())
}

func TestEmbedErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Embed(ctx, &stubEncoder{}, nil)
	assert.ErrorIs(t, err, genre.ErrDataLoad)

	boom := errors.New("model offline")
	_, err = Embed(ctx, &stubEncoder{err: boom}, testRecords)
	assert.ErrorIs(t, err, boom)

	_, err = Embed(ctx, &stubEncoder{vectors: [][]float64{{1}}}, testRecords)
	assert.Error(t, err, "cardinality mismatch")

	_, err = Embed(ctx, &stubEncoder{vectors: [][]float64{{1, 2}, {1}}}, testRecords)
	assert.Error(t, err, "ragged vectors")
}

func TestOllamaEncoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOllamaModel, req.Model)

		resp := ollamaEmbedResponse{Model: req.Model}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(i), 1})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	enc := NewOllamaEncoder(srv.URL+"/", "", 0)
	assert.Equal(t, DefaultOllamaModel, enc.Model())

	vecs, err := enc.Encode(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}, {1, 1}, {2, 1}}, vecs)
}

func TestOllamaEncoderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEncoder(srv.URL, "nope", 0).Encode(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOpenAIEncoderReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIEmbeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 8, req.Dimensions)
		assert.Equal(t, []string{"first", " "}, req.Input)

		w.Write([]byte(`{"data": [
			{"index": 1, "embedding": [0, 2]},
			{"index": 0, "embedding": [1, 0]}
		]}`))
	}))
	defer srv.Close()

	enc := NewOpenAIEncoder(srv.URL, "sk-test", "text-embedding-3-small", 8, 0)
	vecs, err := enc.Encode(context.Background(), []string{" first ", ""})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 2}}, vecs)
}

func TestOpenAIEncoderMissingIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"index": 0, "embedding": [1]}]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIEncoder(srv.URL, "", "m", 0, 0).Encode(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestHashingEncoder(t *testing.T) {
	enc := NewHashingEncoder(64)
	assert.Equal(t, "hashing-64", enc.Model())

	vecs, err := enc.Encode(context.Background(), []string{
		"deep house: four on the floor",
		"deep house: four on the floor",
		"free jazz: improvised",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	for i, v := range vecs[:3] {
		assert.Len(t, v, 64)
		assert.InDelta(t, 1.0, floats.Norm(v, 2), 1e-9, "vector %d not normalized", i)
	}
	assert.Equal(t, vecs[0], vecs[1], "encoding must be deterministic")
	assert.NotEqual(t, vecs[0], vecs[2])
	assert.Equal(t, 0.0, floats.Norm(vecs[3], 2))
}

func TestHashingEncoderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashingEncoder(0).Encode(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
