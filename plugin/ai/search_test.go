package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/store"
	"github.com/neothink-dao/platform-bridge/store/db/sqlite"
)

// fakeEmbedder returns a fixed-dimension vector derived from the text
// length, good enough to exercise the indexing pipeline offline.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i], _ = f.Embed(ctx, text)
	}
	return vectors, nil
}

func (fakeEmbedder) Dimensions() int { return 3 }

func newTestSearchService(t *testing.T) *SearchService {
	t.Helper()
	p := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    t.TempDir() + "/search_test.db",
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	return NewSearchService(s, fakeEmbedder{})
}

func TestSearchServiceIndexDocument(t *testing.T) {
	ctx := context.Background()
	service := newTestSearchService(t)

	doc, err := service.IndexDocument(ctx, platform.Hub, "Prime Law overview", map[string]any{"kind": "article"})
	require.NoError(t, err)
	require.NotZero(t, doc.ID)
	require.Len(t, doc.Embedding, 3)

	_, err = service.IndexDocument(ctx, platform.Hub, "   ", nil)
	require.Error(t, err)

	_, err = service.IndexDocument(ctx, platform.ID("mars"), "content", nil)
	require.Error(t, err)
}

func TestSearchServiceValidatesQuery(t *testing.T) {
	ctx := context.Background()
	service := newTestSearchService(t)

	_, err := service.Search(ctx, "", nil, 0, 0)
	require.Error(t, err)

	bad := platform.ID("mars")
	_, err = service.Search(ctx, "query", &bad, 0, 0)
	require.Error(t, err)
}

func TestSearchServiceRequiresPostgres(t *testing.T) {
	ctx := context.Background()
	service := newTestSearchService(t)

	_, err := service.Search(ctx, "prime law", nil, 0, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PostgreSQL")
}
