package config

import (
	"log/slog"
	"time"
)

type ContextKey string

const (
	TRACE_ID_KEY ContextKey = "traceId"
	USER_ID_KEY  ContextKey = "userId"
)

const (
	LOG_LEVEL_PROD = slog.LevelInfo

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//serverTimeouts
	ReadTimeout            = 30 * time.Second
	WriteTimeout           = 5 * time.Minute //ingestion with the paced embedder is slow
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"
	APIPrefix        = "/api/v1"

	MaxUploadSize = 32 << 20 //32mb

	//chunking - same window the original loader used
	ChunkSize    = 1000
	ChunkOverlap = 100

	PageExtractTimeout = 10 * time.Second

	//retrieval
	DefaultTopK = 5

	//vectorDB
	StoreBackendQdrant   = "qdrant"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
	StoreBackendMemory   = "memory"
	DefaultCollection    = "document_embeddings"
	QdrantDefaultPort    = 6334 //grpc
	QdrantPoolSize       = 1    //2-5 is preferred for prod according to documentation
	QdrantScrollPageSize = 256

	//postgres
	PostgresInsertBatchSize = 100
	PostgresMaxIdleConns    = 10
	PostgresMaxOpenConns    = 50
	PostgresConnMaxLifetime = time.Hour

	//redis
	RedisChunkKeyPrefix   = "chunks"
	RedisUserDocKeyPrefix = "user_docs"
	RedisPingTimeout      = 3 * time.Second
	RedisIOTimeout        = 30 * time.Second

	//embeddings
	EmbeddingProviderGemini   = "gemini"
	EmbeddingProviderLocal    = "local"
	GoogleEmbeddingModel      = "gemini-embedding-001"
	GoogleEmbeddingDimension  = 768
	LocalEmbeddingModel       = "all-MiniLM-L6-v2"
	LocalEmbeddingDimension   = 384
	LocalEmbeddingBaseURL     = "http://localhost:11434/v1"
	LocalEmbeddingBatchSize   = 64
	HostedEmbeddingCallDelay  = 1 * time.Second
	EmbeddingTaskTypeDocument = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskTypeQuery    = "RETRIEVAL_QUERY"

	//llm
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
	GeminiModelName   = "gemini-1.5-flash"
	OpenAIModelName   = "gpt-4o-mini"

	//auth
	SupabaseDefaultAudience = "authenticated"
	VerifiedTokenCacheTTL   = 5 * time.Minute
	VerifiedTokenCacheSweep = 10 * time.Minute

	//logs
	LogFileMaxSizeMB  = 10
	LogFileMaxBackups = 5
	LogFileMaxAgeDays = 30

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
)

var DefaultCorsOrigins = []string{
	"http://localhost",
	"http://localhost:8080",
	"http://127.0.0.1:8080",
}
