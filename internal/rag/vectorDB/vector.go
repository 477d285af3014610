package vectorDB

import (
	"context"

	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
)

// Filter is an exact, case-sensitive equality match on metadata fields.
// Every entry must match.
type Filter map[string]string

func ByUserAndDocument(userID string, documentID string) Filter {
	return Filter{
		commonModels.MetaUserID:     userID,
		commonModels.MetaDocumentID: documentID,
	}
}

// Matches is the reference semantics every store implements.
func (f Filter) Matches(m commonModels.Metadata) bool {
	for key, want := range f {
		if m.String(key) != want {
			return false
		}
	}
	return true
}

// DocumentStore is the schema-less chunk collection. Ingestion is its only
// writer; retrieval only reads.
type DocumentStore interface {
	// InsertMany writes all records in one bulk operation.
	InsertMany(ctx context.Context, records []commonModels.ChunkRecord) error
	// Find returns every record matching filter, in store order.
	Find(ctx context.Context, filter Filter) ([]commonModels.ChunkRecord, error)
	// Count is used for diagnostics only.
	Count(ctx context.Context, filter Filter) (int64, error)
}
