package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/data/redisStore"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

// RedisChunkStore keeps the chunks of one document as a JSON list under
// chunks:{user}:{document}. user_docs:{user} indexes the documents of a user.
type RedisChunkStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisChunkStore(store *redisStore.Store) *RedisChunkStore {
	return &RedisChunkStore{
		store:  store,
		logger: logger_i.NewLogger("RedisChunkStore"),
	}
}

func (s *RedisChunkStore) Close() error {
	return s.store.Close()
}

func chunkKey(userID string, documentID string) string {
	return fmt.Sprintf("%s:%s:%s", config.RedisChunkKeyPrefix, userID, documentID)
}

func userDocsKey(userID string) string {
	return fmt.Sprintf("%s:%s", config.RedisUserDocKeyPrefix, userID)
}

type docKey struct {
	user     string
	document string
}

func (s *RedisChunkStore) InsertMany(ctx context.Context, records []commonModels.ChunkRecord) error {
	log := s.logger.FromContext(ctx)

	// group by document, keeping the original order inside each group
	groups := make(map[docKey][]interface{})
	var order []docKey
	for _, r := range records {
		key := docKey{user: r.Metadata.UserID(), document: r.Metadata.DocumentID()}
		if key.user == "" || key.document == "" {
			return fmt.Errorf("chunk record without %s or %s", commonModels.MetaUserID, commonModels.MetaDocumentID)
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding chunk record: %w", err)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], data)
	}

	for _, key := range order {
		err := s.store.AppendList(ctx, chunkKey(key.user, key.document), userDocsKey(key.user), key.document, groups[key]...)
		if err != nil {
			log.Error("error saving chunks", "documentId", key.document, "error", err)
			return err
		}
	}
	log.Debug("Saved chunks", "count", len(records))
	return nil
}

func (s *RedisChunkStore) Find(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
	keys, err := s.listKeys(ctx, filter)
	if err != nil {
		return nil, err
	}

	var out []commonModels.ChunkRecord
	for _, key := range keys {
		raw, err := s.store.ListGetAll(ctx, key)
		if err != nil && !s.store.IsNil(err) {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		for _, item := range raw {
			var record commonModels.ChunkRecord
			if err = json.Unmarshal([]byte(item), &record); err != nil {
				return nil, fmt.Errorf("decoding chunk record: %w", err)
			}
			if filter.Matches(record.Metadata) {
				out = append(out, record)
			}
		}
	}
	return out, nil
}

func (s *RedisChunkStore) Count(ctx context.Context, filter vectorDB.Filter) (int64, error) {
	// a plain user+document filter maps to exactly one list
	if len(filter) == 2 && filter[commonModels.MetaUserID] != "" && filter[commonModels.MetaDocumentID] != "" {
		return s.store.ListLen(ctx, chunkKey(filter[commonModels.MetaUserID], filter[commonModels.MetaDocumentID]))
	}
	records, err := s.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// listKeys resolves the lists a filter can touch. Every filter must name the
// user since the key space is partitioned by user.
func (s *RedisChunkStore) listKeys(ctx context.Context, filter vectorDB.Filter) ([]string, error) {
	userID := filter[commonModels.MetaUserID]
	if userID == "" {
		return nil, fmt.Errorf("redis chunk store needs a %s filter", commonModels.MetaUserID)
	}
	if documentID := filter[commonModels.MetaDocumentID]; documentID != "" {
		return []string{chunkKey(userID, documentID)}, nil
	}

	docs, err := s.store.SetMembers(ctx, userDocsKey(userID))
	if err != nil && !s.store.IsNil(err) {
		return nil, fmt.Errorf("reading documents of user: %w", err)
	}
	sort.Strings(docs)
	keys := make([]string, len(docs))
	for i, doc := range docs {
		keys[i] = chunkKey(userID, doc)
	}
	return keys, nil
}
