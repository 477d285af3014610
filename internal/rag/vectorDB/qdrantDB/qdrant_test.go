package qdrantDB

import (
	"testing"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostPort(t *testing.T) {
	tests := []struct {
		name     string
		conn     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"host and port", "qdrant.internal:6400", "qdrant.internal", 6400, false},
		{"bare host", "localhost", "localhost", config.QdrantDefaultPort, false},
		{"bad port", "localhost:grpc", "", 0, true},
		{"empty", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := parseHostPort(tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestToFilter(t *testing.T) {
	assert.Nil(t, toFilter(nil))

	f := toFilter(vectorDB.ByUserAndDocument("alice", "doc-1"))
	require.NotNil(t, f)
	assert.Len(t, f.GetMust(), 2)

	keys := map[string]string{}
	for _, c := range f.GetMust() {
		field := c.GetField()
		keys[field.GetKey()] = field.GetMatch().GetKeyword()
	}
	assert.Equal(t, map[string]string{"user_id": "alice", "document_id": "doc-1"}, keys)
}

func TestPayloadRoundTrip(t *testing.T) {
	record := commonModels.ChunkRecord{
		Text:      "The capital of France is Paris.",
		Embedding: []float32{0.6, 0.8},
		Metadata: commonModels.Metadata{
			commonModels.MetaUserID:     "alice",
			commonModels.MetaDocumentID: "doc-1",
			commonModels.MetaPage:       3,
		},
	}

	point := &qdrant.RetrievedPoint{
		Payload: qdrant.NewValueMap(toPayload(record)),
		Vectors: &qdrant.VectorsOutput{
			VectorsOptions: &qdrant.VectorsOutput_Vector{
				Vector: &qdrant.VectorOutput{Data: record.Embedding},
			},
		},
	}

	got := fromPoint(point)
	assert.Equal(t, record.Text, got.Text)
	assert.Equal(t, record.Embedding, got.Embedding)
	assert.Equal(t, "alice", got.Metadata.UserID())
	assert.Equal(t, "doc-1", got.Metadata.DocumentID())
	assert.Equal(t, int64(3), got.Metadata[commonModels.MetaPage])
	assert.NotContains(t, got.Metadata, textKey)
}
