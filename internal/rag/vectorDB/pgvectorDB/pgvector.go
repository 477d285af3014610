package pgvectorDB

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// chunkRow is one record. The vector column has no fixed dimension so rows
// of different embedding providers can share a table; the provider tag in
// metadata keeps them apart at scoring time.
type chunkRow struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Text      string          `gorm:"type:text;not null"`
	Embedding pgvector.Vector `gorm:"type:vector"`
	Metadata  datatypes.JSON  `gorm:"type:jsonb;not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

type Store struct {
	db     *gorm.DB
	table  string
	logger *logger_i.Logger
}

func NewStore(ctx context.Context, dsn string, table string) (*Store, error) {
	logger := logger_i.NewLogger("Postgres")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		logger.Error("could not open postgres", "error", err)
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(config.PostgresMaxIdleConns)
	sqlDB.SetMaxOpenConns(config.PostgresMaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.PostgresConnMaxLifetime)

	s := &Store{db: db, table: table, logger: logger}
	if err = s.migrate(ctx); err != nil {
		logger.Error("migration failed", "table", table, "error", err)
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Postgres store ready", "table", table)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enabling pgvector: %w", err)
	}
	if err := db.Table(s.table).AutoMigrate(&chunkRow{}); err != nil {
		return fmt.Errorf("migrating %s: %w", s.table, err)
	}
	index := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s ((metadata->>'%s'), (metadata->>'%s'))",
		s.table, s.table, commonModels.MetaUserID, commonModels.MetaDocumentID)
	return db.Exec(index).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.logger.Info("Closing Postgres")
	return sqlDB.Close()
}

func (s *Store) InsertMany(ctx context.Context, records []commonModels.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]chunkRow, len(records))
	for i, r := range records {
		row, err := toRow(r)
		if err != nil {
			return err
		}
		rows[i] = row
	}

	err := s.db.WithContext(ctx).Table(s.table).CreateInBatches(rows, config.PostgresInsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, filter vectorDB.Filter) ([]commonModels.ChunkRecord, error) {
	var rows []chunkRow
	err := s.filtered(ctx, filter).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding chunks: %w", err)
	}

	out := make([]commonModels.ChunkRecord, 0, len(rows))
	for _, row := range rows {
		record, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, filter vectorDB.Filter) (int64, error) {
	var n int64
	if err := s.filtered(ctx, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

func (s *Store) filtered(ctx context.Context, filter vectorDB.Filter) *gorm.DB {
	query := s.db.WithContext(ctx).Table(s.table)
	for _, key := range sortedKeys(filter) {
		query = query.Where("metadata->>? = ?", key, filter[key])
	}
	return query
}

func sortedKeys(filter vectorDB.Filter) []string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toRow(r commonModels.ChunkRecord) (chunkRow, error) {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return chunkRow{}, fmt.Errorf("encoding metadata: %w", err)
	}
	return chunkRow{
		Text:      r.Text,
		Embedding: pgvector.NewVector(r.Embedding),
		Metadata:  datatypes.JSON(meta),
	}, nil
}

func fromRow(row chunkRow) (commonModels.ChunkRecord, error) {
	meta := commonModels.Metadata{}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return commonModels.ChunkRecord{}, fmt.Errorf("decoding metadata of row %d: %w", row.ID, err)
		}
	}
	return commonModels.ChunkRecord{
		Text:      row.Text,
		Embedding: row.Embedding.Slice(),
		Metadata:  meta,
	}, nil
}
