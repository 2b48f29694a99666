package store

import (
	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// Document is a content chunk indexed for similarity search. Embeddings
// are stored in a pgvector column; similarity search is only available
// on the postgres driver.
type Document struct {
	ID        int32
	Platform  platform.ID
	Content   string
	Metadata  map[string]any
	Embedding []float32
	CreatedTs int64
	UpdatedTs int64
}

// FindDocument specifies the conditions for listing documents.
type FindDocument struct {
	ID       *int32
	Platform *platform.ID
	Limit    *int
}

// MatchDocumentsOptions parameterizes a similarity search over the
// document embeddings.
type MatchDocumentsOptions struct {
	Embedding []float32
	Threshold float32
	Count     int
	Platform  *platform.ID
}

// DocumentMatch pairs a matched document with its similarity score.
type DocumentMatch struct {
	Document   *Document
	Similarity float32
}

// DeleteDocument specifies the document to delete.
type DeleteDocument struct {
	ID int32
}
