package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/akolanti/GoPDFChat/internal/adapter/utils"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const textKey = "text"

type Options struct {
	ConnectionString string //host:port of the grpc endpoint
	APIKey           string
	UseTLS           bool
	Collection       string
	Dimension        int
}

// Store keeps one point per chunk. The chunk text and the flattened metadata
// live in the payload; user_id and document_id are keyword indexed.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
	logger     *logger_i.Logger
}

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	logger := logger_i.NewLogger("Qdrant")

	host, port, err := parseHostPort(opts.ConnectionString)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		APIKey:   opts.APIKey,
		UseTLS:   opts.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, fmt.Errorf("qdrant client: %w", err)
	}

	s := &Store{
		client:     client,
		collection: opts.Collection,
		dimension:  uint64(opts.Dimension),
		logger:     logger,
	}
	if err = s.createCollection(ctx); err != nil {
		logger.Error("could not create collection", "collectionName", opts.Collection, "error", err)
		_ = client.Close()
		return nil, err
	}

	logger.Info("Qdrant store ready", "host", host, "port", port, "collection", opts.Collection)
	return s, nil
}

func (s *Store) Close() error {
	s.logger.Info("Shutting down Qdrant")
	return s.client.Close()
}

func (s *Store) InsertMany(ctx context.Context, records []commonModels.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(utils.GetNewUUID()),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: qdrant.NewValueMap(toPayload(r)),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
	log := s.logger.FromContext(ctx)

	var records []commonModels.ChunkRecord
	var offset *qdrant.PointId
	for {
		res, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         toFilter(filter),
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(config.QdrantScrollPageSize)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				log.Warn("collection missing, nothing indexed yet", "collection", s.collection)
				return nil, nil
			}
			log.Error("Error scrolling Qdrant", "error", err)
			return nil, fmt.Errorf("qdrant scroll failed: %w", err)
		}

		for _, point := range res.GetResult() {
			records = append(records, fromPoint(point))
		}

		offset = res.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	log.Debug("Qdrant scroll complete", "records", len(records))
	return records, nil
}

func (s *Store) Count(ctx context.Context, filter vectorDB.Filter) (int64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         toFilter(filter),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return int64(n), nil
}

func (s *Store) createCollection(ctx context.Context) error {
	if s.collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return err
	}

	for _, field := range []string{commonModels.MetaUserID, commonModels.MetaDocumentID} {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("creating %s index: %w", field, err)
		}
	}
	return nil
}

func parseHostPort(conn string) (string, int, error) {
	if conn == "" {
		return "", 0, errors.New("empty qdrant connection string")
	}
	host, portStr, err := net.SplitHostPort(conn)
	if err != nil {
		// bare host, use the grpc default port
		return conn, config.QdrantDefaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

func toFilter(filter vectorDB.Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		conditions = append(conditions, qdrant.NewMatch(key, value))
	}
	return &qdrant.Filter{Must: conditions}
}

func toPayload(r commonModels.ChunkRecord) map[string]any {
	payload := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		payload[k] = v
	}
	payload[textKey] = r.Text
	return payload
}

func fromPoint(point *qdrant.RetrievedPoint) commonModels.ChunkRecord {
	meta := make(commonModels.Metadata, len(point.GetPayload()))
	var text string
	for k, v := range point.GetPayload() {
		if k == textKey {
			text = v.GetStringValue()
			continue
		}
		meta[k] = fromValue(v)
	}
	return commonModels.ChunkRecord{
		Text:      text,
		Embedding: point.GetVectors().GetVector().GetData(),
		Metadata:  meta,
	}
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}
