package retrieval

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve"

	"healthqa/internal/kb"
)

// Index is a bleve-backed retriever over ingested knowledge base chunks.
// Chunk fields are stored in the index, so search results carry the full
// provenance metadata needed for grading.
type Index struct {
	idx bleve.Index
}

// Open opens an existing index at path.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// Create builds a new index at path, failing if one already exists.
func Create(path string) (*Index, error) {
	idx, err := bleve.New(path, bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index at %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// NewMemIndex creates an in-memory index, used by tests and one-shot runs.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

// IndexChunks adds chunks in a single batch keyed by their stable chunk id.
func (x *Index) IndexChunks(chunks []kb.Chunk) error {
	batch := x.idx.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ChunkID, c); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", c.ChunkID, err)
		}
	}
	return x.idx.Batch(batch)
}

// Search returns up to k passages ranked by keyword similarity.
func (x *Index) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"*"}
	res, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	out := make([]Passage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, Passage{
			Content:         fieldString(hit.Fields, "content"),
			SourceURL:       fieldString(hit.Fields, "source_url"),
			SourceName:      fieldString(hit.Fields, "source_name"),
			Title:           fieldString(hit.Fields, "title"),
			PublicationDate: fieldString(hit.Fields, "publication_date"),
			DocumentType:    fieldString(hit.Fields, "document_type"),
		})
	}
	return out, nil
}

// DocCount reports the number of indexed chunks.
func (x *Index) DocCount() (uint64, error) {
	return x.idx.DocCount()
}

func (x *Index) Close() error {
	return x.idx.Close()
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
