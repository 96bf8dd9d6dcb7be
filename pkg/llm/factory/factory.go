package factory

import (
	"fmt"

	"stratos-backend/pkg/llm"
	"stratos-backend/pkg/llm/gemini"
	"stratos-backend/pkg/llm/huggingface"
	"stratos-backend/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini":
		return gemini.NewGeminiProvider(apiKey, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
