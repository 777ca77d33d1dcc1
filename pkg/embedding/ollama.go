package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaModel is the Ollama build of all-MiniLM-L6-v2.
const DefaultOllamaModel = "all-minilm"

// OllamaEncoder calls a local Ollama server's /api/embed endpoint.
type OllamaEncoder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaEncoder creates an encoder. Empty model selects DefaultOllamaModel.
func NewOllamaEncoder(baseURL, model string, timeout time.Duration) *OllamaEncoder {
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second // first call loads the model
	}
	return &OllamaEncoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Model returns the configured model name.
func (c *OllamaEncoder) Model() string {
	return c.model
}

// Encode embeds all texts in a single request.
func (c *OllamaEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("ollama", resp)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out.Embeddings, nil
}
