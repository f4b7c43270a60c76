package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"
)

// Document is one normalized crawled document, the input format produced by
// the crawl collaborators.
type Document struct {
	Content         string `json:"content"`
	SourceURL       string `json:"source_url"`
	SourceName      string `json:"source_name"`
	PublicationDate string `json:"publication_date"`
	Title           string `json:"title"`
	DocumentType    string `json:"document_type"`
}

// Chunk is one indexable passage with provenance metadata and a stable id.
type Chunk struct {
	ChunkID         string `json:"chunk_id"`
	ChunkIndex      int    `json:"chunk_index"`
	Content         string `json:"content"`
	SourceURL       string `json:"source_url"`
	SourceName      string `json:"source_name"`
	PublicationDate string `json:"publication_date"`
	Title           string `json:"title"`
	DocumentType    string `json:"document_type"`
}

// Options tunes the cleaning/chunking job.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkLen  int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 500
	}
	if o.ChunkOverlap < 0 {
		o.ChunkOverlap = 0
	}
	if o.MinChunkLen <= 0 {
		o.MinChunkLen = 20
	}
	return o
}

// LoadDocuments reads a JSON array of normalized documents.
func LoadDocuments(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}
	return docs, nil
}

// BuildChunks cleans, deduplicates and chunks documents into indexable
// passages. Documents sharing a source URL are kept once (first wins),
// content still carrying markup goes through readability extraction first,
// and chunks shorter than MinChunkLen runes are discarded.
func BuildChunks(docs []Document, opts Options) []Chunk {
	opts = opts.withDefaults()

	seen := make(map[string]struct{}, len(docs))
	var out []Chunk
	for _, doc := range docs {
		if doc.SourceURL != "" {
			if _, dup := seen[doc.SourceURL]; dup {
				continue
			}
			seen[doc.SourceURL] = struct{}{}
		}

		content := doc.Content
		title := doc.Title
		if looksLikeHTML(content) {
			if text, extractedTitle, err := ExtractHTML(content, doc.SourceURL); err == nil {
				content = text
				if title == "" {
					title = extractedTitle
				}
			}
		}
		content = CleanText(content)
		if content == "" {
			continue
		}

		date := NormalizeDate(doc.PublicationDate)

		for idx, piece := range ChunkText(content, opts.ChunkSize, opts.ChunkOverlap) {
			if utf8.RuneCountInString(piece) < opts.MinChunkLen {
				continue
			}
			out = append(out, Chunk{
				ChunkID:         ChunkID(doc.SourceURL, title, idx),
				ChunkIndex:      idx,
				Content:         piece,
				SourceURL:       doc.SourceURL,
				SourceName:      doc.SourceName,
				PublicationDate: date,
				Title:           title,
				DocumentType:    doc.DocumentType,
			})
		}
	}
	return out
}
