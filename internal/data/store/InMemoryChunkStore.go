package store

import (
	"context"
	"sync"

	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

// InMemoryChunkStore keeps records in insertion order. Used for local runs
// and tests; nothing survives a restart.
type InMemoryChunkStore struct {
	lock    *sync.RWMutex
	records []commonModels.ChunkRecord
	logger  *logger_i.Logger
}

func NewInMemoryChunkStore() *InMemoryChunkStore {
	return &InMemoryChunkStore{
		lock:   new(sync.RWMutex),
		logger: logger_i.NewLogger("InMemoryChunkStore"),
	}
}

func (store *InMemoryChunkStore) InsertMany(ctx context.Context, records []commonModels.ChunkRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.lock.Lock()
	defer store.lock.Unlock()
	for _, r := range records {
		store.records = append(store.records, cloneRecord(r))
	}
	store.logger.FromContext(ctx).Debug("Saved chunk records", "count", len(records), "total", len(store.records))
	return nil
}

func (store *InMemoryChunkStore) Find(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.lock.RLock()
	defer store.lock.RUnlock()
	var out []commonModels.ChunkRecord
	for _, r := range store.records {
		if filter.Matches(r.Metadata) {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (store *InMemoryChunkStore) Count(ctx context.Context, filter vectorDB.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	store.lock.RLock()
	defer store.lock.RUnlock()
	var n int64
	for _, r := range store.records {
		if filter.Matches(r.Metadata) {
			n++
		}
	}
	return n, nil
}

func cloneRecord(r commonModels.ChunkRecord) commonModels.ChunkRecord {
	embedding := make([]float32, len(r.Embedding))
	copy(embedding, r.Embedding)
	return commonModels.ChunkRecord{
		Text:      r.Text,
		Embedding: embedding,
		Metadata:  r.Metadata.Clone(),
	}
}
