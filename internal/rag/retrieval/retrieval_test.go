package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/data/store"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTag = "test:model:2"

type mockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
	tag          string
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (m *mockEmbedder) Tag() string {
	if m.tag == "" {
		return testTag
	}
	return m.tag
}

type mockStore struct {
	OnFind  func(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error)
	OnCount func(ctx context.Context, filter vectorDB.Filter) (int64, error)
}

func (m *mockStore) InsertMany(ctx context.Context, records []commonModels.ChunkRecord) error {
	return nil
}

func (m *mockStore) Find(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
	return m.OnFind(ctx, filter)
}

func (m *mockStore) Count(ctx context.Context, filter vectorDB.Filter) (int64, error) {
	if m.OnCount != nil {
		return m.OnCount(ctx, filter)
	}
	return 0, nil
}

func chunk(user, doc, text string, vec ...float32) commonModels.ChunkRecord {
	return commonModels.ChunkRecord{
		Text:      text,
		Embedding: vec,
		Metadata: commonModels.Metadata{
			commonModels.MetaUserID:            user,
			commonModels.MetaDocumentID:        doc,
			commonModels.MetaEmbeddingProvider: testTag,
		},
	}
}

func seeded(t *testing.T, records ...commonModels.ChunkRecord) *store.InMemoryChunkStore {
	t.Helper()
	s := store.NewInMemoryChunkStore()
	require.NoError(t, s.InsertMany(context.Background(), records))
	return s
}

func texts(chunks []commonModels.ScoredChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Record.Text
	}
	return out
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func TestRetrieve_OrdersByScoreAndCapsAtK(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var records []commonModels.ChunkRecord
	for i := 0; i < 20; i++ {
		v := embedding.Normalize([]float32{rng.Float32()*2 - 1, rng.Float32()*2 - 1})
		records = append(records, chunk("alice", "doc-1", fmt.Sprintf("chunk %d", i), v...))
	}

	engine := NewEngine(seeded(t, records...), &mockEmbedder{}, Options{})
	for _, k := range []int{1, 3, 5, 25} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}, k)
			require.NoError(t, err)

			assert.LessOrEqual(t, len(got), k)
			assert.Len(t, got, min(k, len(records)))
			for i := range got {
				require.NotNil(t, got[i].Score)
				if i > 0 {
					assert.Greater(t, *got[i-1].Score, *got[i].Score)
				}
			}
		})
	}
}

func TestRetrieve_NonPositiveKUsesConfiguredTopK(t *testing.T) {
	var records []commonModels.ChunkRecord
	for i := 0; i < 10; i++ {
		records = append(records, chunk("alice", "doc-1", fmt.Sprintf("chunk %d", i), 1, 0))
	}
	query := commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}

	configured := NewEngine(seeded(t, records...), &mockEmbedder{}, Options{TopK: 3})
	for _, k := range []int{0, -1} {
		got, err := configured.Retrieve(testCtx(), query, k)
		require.NoError(t, err)
		assert.Len(t, got, 3, "k=%d", k)
	}

	got, err := configured.Retrieve(testCtx(), query, 7)
	require.NoError(t, err)
	assert.Len(t, got, 7)

	unconfigured := NewEngine(seeded(t, records...), &mockEmbedder{}, Options{})
	got, err = unconfigured.Retrieve(testCtx(), query, 0)
	require.NoError(t, err)
	assert.Len(t, got, config.DefaultTopK)
}

func TestRetrieve_ScoreIsDotProduct(t *testing.T) {
	engine := NewEngine(seeded(t,
		chunk("alice", "doc-1", "low", 0, 1),
		chunk("alice", "doc-1", "high", 0.6, 0.8),
	), &mockEmbedder{}, Options{TopK: 5})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"high", "low"}, texts(got))
	assert.InDelta(t, 0.6, *got[0].Score, 1e-6)
	assert.InDelta(t, 0.0, *got[1].Score, 1e-6)
}

func TestRetrieve_TiesKeepFetchOrder(t *testing.T) {
	engine := NewEngine(seeded(t,
		chunk("alice", "doc-1", "first", 1, 0),
		chunk("alice", "doc-1", "second", 1, 0),
		chunk("alice", "doc-1", "third", 1, 0),
	), &mockEmbedder{}, Options{TopK: 5})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, texts(got))
}

func TestRetrieve_NoChunksIsEmptyNotError(t *testing.T) {
	engine := NewEngine(seeded(t, chunk("alice", "doc-1", "text", 1, 0)), &mockEmbedder{}, Options{})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "unknown", Question: "q"}, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRetrieve_IsolatesUsersAndDocuments(t *testing.T) {
	s := seeded(t,
		chunk("alice", "doc-1", "alice doc-1", 1, 0),
		chunk("alice", "doc-2", "alice doc-2", 1, 0),
		chunk("bob", "doc-1", "bob doc-1", 1, 0),
		chunk("Alice", "doc-1", "other case user", 1, 0),
	)
	engine := NewEngine(s, &mockEmbedder{}, Options{})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "doc"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice doc-1"}, texts(got))

	got, err = engine.Retrieve(testCtx(), commonModels.Query{UserID: "bob", DocumentID: "doc-2", Question: "doc"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_FallsBackToSubstring(t *testing.T) {
	records := []commonModels.ChunkRecord{
		chunk("alice", "doc-1", "Nothing here", 1, 0),
		chunk("alice", "doc-1", "The capital of FRANCE is Paris.", 1, 0),
		chunk("alice", "doc-1", "france exports wine", 1, 0),
		chunk("alice", "doc-1", "France again", 1, 0),
	}

	tests := []struct {
		name     string
		embedder *mockEmbedder
		records  []commonModels.ChunkRecord
	}{
		{
			name: "embedding provider down",
			embedder: &mockEmbedder{OnEmbedQuery: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("connection refused")
			}},
			records: records,
		},
		{
			name:     "stored vectors from another provider",
			embedder: &mockEmbedder{tag: "other:model:2"},
			records:  records,
		},
		{
			name: "dimension mismatch",
			embedder: &mockEmbedder{OnEmbedQuery: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{1, 0, 0}, nil
			}},
			records: records,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(seeded(t, tt.records...), tt.embedder, Options{TopK: 2})

			got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "France"}, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"The capital of FRANCE is Paris.", "france exports wine"}, texts(got))
			for _, c := range got {
				assert.Nil(t, c.Score)
			}
		})
	}
}

func TestRetrieve_FallbackWithNoMatchIsEmpty(t *testing.T) {
	embedder := &mockEmbedder{OnEmbedQuery: func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}}
	engine := NewEngine(seeded(t, chunk("alice", "doc-1", "unrelated", 1, 0)), embedder, Options{})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "capital"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_UntaggedRecordsAreScored(t *testing.T) {
	r := chunk("alice", "doc-1", "legacy", 1, 0)
	delete(r.Metadata, commonModels.MetaEmbeddingProvider)
	engine := NewEngine(seeded(t, r), &mockEmbedder{}, Options{})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Score)
}

func TestRetrieve_StoreFailureIsEmpty(t *testing.T) {
	s := &mockStore{OnFind: func(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
		return nil, errors.New("store offline")
	}}
	engine := NewEngine(s, &mockEmbedder{}, Options{})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_DiagnosticUserScan(t *testing.T) {
	var counted vectorDB.Filter
	s := &mockStore{
		OnFind: func(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
			return []commonModels.ChunkRecord{chunk("alice", "doc-1", "text", 1, 0)}, nil
		},
		OnCount: func(ctx context.Context, filter vectorDB.Filter) (int64, error) {
			counted = filter
			return 0, errors.New("count failed")
		},
	}
	engine := NewEngine(s, &mockEmbedder{}, Options{DiagnosticUserScan: true})

	got, err := engine.Retrieve(testCtx(), commonModels.Query{UserID: "alice", DocumentID: "doc-1", Question: "q"}, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, vectorDB.Filter{commonModels.MetaUserID: "alice"}, counted)
}

func TestSubstringRanker_CapsAtK(t *testing.T) {
	candidates := []commonModels.ChunkRecord{
		chunk("u", "d", "match one"),
		chunk("u", "d", "MATCH two"),
		chunk("u", "d", "match three"),
	}

	got, err := SubstringRanker{}.Rank(context.Background(), "Match", candidates, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"match one", "MATCH two"}, texts(got))
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}), 1e-9)
	assert.Equal(t, 0.0, Dot(nil, nil))
}
