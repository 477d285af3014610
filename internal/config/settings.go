package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Settings is everything the process reads from its environment.
// LoadSettings refuses to return a value that fails validation, so main never
// starts with a half configured store, model or identity provider.
type Settings struct {
	ListenAddr  string `validate:"required"`
	CorsOrigins []string
	RateLimit   bool

	Store     StoreSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Auth      AuthSettings
	Retrieval RetrievalSettings
	Log       LogSettings
}

type StoreSettings struct {
	Backend          string `validate:"oneof=qdrant postgres redis memory"`
	ConnectionString string `validate:"required_unless=Backend memory"`
	Collection       string `validate:"required"`
	QdrantAPIKey     string
	QdrantUseTLS     bool
}

type EmbeddingSettings struct {
	Provider  string        `validate:"oneof=gemini local"`
	Model     string        `validate:"required"`
	Dimension int           `validate:"gt=0"`
	APIKey    string        `validate:"required_if=Provider gemini"`
	BaseURL   string        `validate:"required_if=Provider local"`
	CallDelay time.Duration `validate:"gte=0"`
}

type LLMSettings struct {
	Provider string `validate:"oneof=gemini openai"`
	Model    string `validate:"required"`
	APIKey   string `validate:"required"`
	BaseURL  string
}

type AuthSettings struct {
	ProjectURL string `validate:"required,url"`
	JWTSecret  string `validate:"required"`
	Audience   string
	ServiceKey string
	AnonKey    string
}

type RetrievalSettings struct {
	TopK               int `validate:"gt=0"`
	DiagnosticUserScan bool
}

type LogSettings struct {
	Level  slog.Level
	IsProd bool
	File   string
}

// LoadSettings reads .env (if present) and the process environment.
func LoadSettings() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return settingsFromEnv()
}

func settingsFromEnv() (*Settings, error) {
	env := &envReader{}
	embeddingProvider := getEnv("EMBEDDING_PROVIDER", EmbeddingProviderGemini)
	llmProvider := getEnv("LLM_PROVIDER", LLMProviderGemini)

	s := &Settings{
		ListenAddr:  getEnv("LISTEN_ADDR", ServerListenAddr),
		CorsOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", DefaultCorsOrigins),
		RateLimit:   env.asBool("RATE_LIMIT_ENABLED", false),
		Store: StoreSettings{
			Backend:          getEnv("STORE_BACKEND", StoreBackendQdrant),
			ConnectionString: os.Getenv("STORE_CONNECTION_STRING"),
			Collection:       getEnv("STORE_COLLECTION", DefaultCollection),
			QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
			QdrantUseTLS:     env.asBool("QDRANT_USE_TLS", false),
		},
		Embedding: EmbeddingSettings{
			Provider:  embeddingProvider,
			CallDelay: env.asDuration("EMBEDDING_CALL_DELAY", HostedEmbeddingCallDelay),
			BaseURL:   os.Getenv("EMBEDDING_BASE_URL"),
		},
		LLM: LLMSettings{
			Provider: llmProvider,
			BaseURL:  os.Getenv("OPENAI_BASE_URL"),
		},
		Auth: AuthSettings{
			ProjectURL: os.Getenv("SUPABASE_URL"),
			JWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
			Audience:   getEnv("SUPABASE_JWT_AUDIENCE", SupabaseDefaultAudience),
			ServiceKey: os.Getenv("SUPABASE_KEY"),
			AnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		},
		Retrieval: RetrievalSettings{
			TopK:               env.asInt("RETRIEVAL_TOP_K", DefaultTopK),
			DiagnosticUserScan: env.asBool("DIAGNOSTIC_USER_SCAN", false),
		},
		Log: LogSettings{
			Level:  env.asLevel("LOG_LEVEL", slog.LevelDebug),
			IsProd: env.asBool("IS_PROD", false),
			File:   os.Getenv("LOG_FILE"),
		},
	}

	switch embeddingProvider {
	case EmbeddingProviderLocal:
		s.Embedding.Model = getEnv("EMBEDDING_MODEL", LocalEmbeddingModel)
		s.Embedding.Dimension = env.asInt("EMBEDDING_DIMENSION", LocalEmbeddingDimension)
		if s.Embedding.BaseURL == "" {
			s.Embedding.BaseURL = LocalEmbeddingBaseURL
		}
	default:
		s.Embedding.Model = getEnv("EMBEDDING_MODEL", GoogleEmbeddingModel)
		s.Embedding.Dimension = env.asInt("EMBEDDING_DIMENSION", GoogleEmbeddingDimension)
		s.Embedding.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	switch llmProvider {
	case LLMProviderOpenAI:
		s.LLM.Model = getEnv("LLM_MODEL", OpenAIModelName)
		s.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		s.LLM.Model = getEnv("LLM_MODEL", GeminiModelName)
		s.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envReader parses typed variables. Unset or empty values take the fallback;
// malformed ones are recorded so startup fails instead of running on a default.
type envReader struct {
	errs []error
}

func (r *envReader) fail(key string, raw string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
}

func (r *envReader) asInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return fallback
	}
	return value
}

func (r *envReader) asBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return fallback
	}
	return value
}

func (r *envReader) asDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return fallback
	}
	return value
}

func (r *envReader) asLevel(key string, fallback slog.Level) slog.Level {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		r.fail(key, raw, err)
		return fallback
	}
	return level
}
