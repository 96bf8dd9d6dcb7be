package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const geminiEmbeddingModel = "text-embedding-004"

type geminiRequestPart struct {
	Text string `json:"text"`
}

type geminiRequestContent struct {
	Parts []geminiRequestPart `json:"parts"`
}

type geminiRequest struct {
	Model    string               `json:"model"`
	Content  geminiRequestContent `json:"content"`
	TaskType string               `json:"task_type,omitempty"`
}

// GeminiProvider embeds via the Generative Language API. The task type is
// passed through, so document and query vectors land in the same space but
// on the right side of the asymmetry.
type GeminiProvider struct {
	apiKey string
	client *http.Client
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		client: &http.Client{},
	}
}

func (p *GeminiProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	payload, err := json.Marshal(geminiRequest{
		Model: geminiEmbeddingModel,
		Content: geminiRequestContent{
			Parts: []geminiRequestPart{{Text: text}},
		},
		TaskType: taskType,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		geminiEmbeddingModel,
	)

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini embedding error, code %d, body %s", res.StatusCode, string(body))
	}

	var out EmbeddingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
