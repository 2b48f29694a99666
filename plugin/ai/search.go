package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

const (
	defaultMatchThreshold = 0.5
	defaultMatchCount     = 10
)

// SearchService indexes platform documents with embeddings and answers
// similarity queries against them.
type SearchService struct {
	store    *store.Store
	embedder Embedder
}

// NewSearchService creates a search service.
func NewSearchService(s *store.Store, embedder Embedder) *SearchService {
	return &SearchService{store: s, embedder: embedder}
}

// IndexDocument embeds the content and upserts the document row.
func (s *SearchService) IndexDocument(ctx context.Context, p platform.ID, content string, metadata map[string]any) (*store.Document, error) {
	if !platform.IsValid(p) {
		return nil, errors.Errorf("unknown platform %q", p)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("document content is required")
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed document")
	}

	doc, err := s.store.UpsertDocument(ctx, &store.Document{
		Platform:  p,
		Content:   content,
		Metadata:  metadata,
		Embedding: embedding,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store document")
	}
	return doc, nil
}

// Search embeds the query and returns the most similar documents,
// optionally restricted to one platform. Threshold and count fall back
// to the service defaults when zero.
func (s *SearchService) Search(ctx context.Context, query string, p *platform.ID, threshold float32, count int) ([]*store.DocumentMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if p != nil && !platform.IsValid(*p) {
		return nil, errors.Errorf("unknown platform %q", *p)
	}
	if threshold <= 0 {
		threshold = defaultMatchThreshold
	}
	if count <= 0 {
		count = defaultMatchCount
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	matches, err := s.store.MatchDocuments(ctx, &store.MatchDocumentsOptions{
		Embedding: embedding,
		Threshold: threshold,
		Count:     count,
		Platform:  p,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to match documents")
	}
	return matches, nil
}
