package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
)

// OllamaProvider embeds through a local Ollama instance. Nomic-style models
// make no document/query distinction, so the task type is ignored.
type OllamaProvider struct {
	baseURL string
	model   string
}

func NewOllamaProvider(baseURL string, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{baseURL: baseURL, model: model}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *OllamaProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	payload, err := json.Marshal(ollamaRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(p.baseURL+"/api/embeddings", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error: %s", string(body))
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}

	values := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		values[i] = float32(v)
	}

	// The similarity search uses cosine distance; local models do not
	// normalize their output, so unit length is enforced here.
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: normalize(values)},
	}, nil
}

func normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
