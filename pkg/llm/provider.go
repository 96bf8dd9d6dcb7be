package llm

import "context"

// Message is one turn of a conversation in a provider-neutral shape.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // overrides the provider's default model
}

type Option func(*Options)

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider is the contract every model backend implements. The pipeline
// workers only ever see this interface; which backend answers is a
// configuration concern.
type LLMProvider interface {
	// Chat sends a full conversation history and returns the reply.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single standalone prompt.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
