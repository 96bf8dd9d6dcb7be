package embedding

// Task types understood by embedding backends that distinguish indexing
// from querying. Backends that make no distinction ignore the value.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider turns text into a vector suitable for storage in the
// evidence embedding table.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

// EmbeddingResponse is the provider-neutral result shape; each backend maps
// its own wire format into it.
type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}
