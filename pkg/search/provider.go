package search

import "context"

// ResultType classifies where a result came from and how the research
// coordinator should treat it.
type ResultType string

const (
	TypeWeb    ResultType = "web"
	TypeNews   ResultType = "news"
	TypePatent ResultType = "patent"
)

// Result is one normalized search hit.
type Result struct {
	URL     string
	Domain  string
	Title   string
	Snippet string
	Type    ResultType
}

// Provider is the external search collaborator. Implementations should
// return an empty slice (not an error) when the upstream simply has no
// results; errors are reserved for transport/provider failures, which the
// caller is expected to log and swallow per query.
type Provider interface {
	Search(ctx context.Context, query string, resultType ResultType, limit int) ([]Result, error)
}
