package retrieval

import "context"

// Passage is a bounded span of source text with provenance metadata, the
// unit of retrieval and grading. Passages are immutable once produced.
type Passage struct {
	Content         string
	SourceURL       string
	SourceName      string
	Title           string
	PublicationDate string
	DocumentType    string
}

// Retriever returns the top-k passages ranked by similarity to a query.
// Implementations must honour ctx cancellation and return passages in
// relevance order; that order is authoritative for presentation downstream.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}
