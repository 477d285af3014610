package commonModels

// metadata keys shared by every store implementation
const (
	MetaUserID            = "user_id"
	MetaDocumentID        = "document_id"
	MetaSource            = "source"
	MetaPage              = "page"
	MetaChunkIndex        = "chunk_index"
	MetaEmbeddingProvider = "embedding_provider"
)

// ChunkRecord is the persisted unit: raw text, its vector and a free-form
// metadata map. user_id and document_id are always present once stored.
type ChunkRecord struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
}

type Metadata map[string]any

func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func (m Metadata) UserID() string            { return m.String(MetaUserID) }
func (m Metadata) DocumentID() string        { return m.String(MetaDocumentID) }
func (m Metadata) EmbeddingProvider() string { return m.String(MetaEmbeddingProvider) }

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ScoredChunk is a retrieval result. Score is nil when the chunk came from the
// substring fallback and was never scored.
type ScoredChunk struct {
	Record ChunkRecord
	Score  *float64
}

// Query is the per-request retrieval context. It is never persisted.
type Query struct {
	UserID     string
	DocumentID string
	Question   string
}

// Upload is a document as received at the boundary.
type Upload struct {
	FileName string
	Content  []byte
	UserID   string
}
