// @title           PDF Chat API
// @version         1.0
// @description     Upload PDFs and ask questions about them. Answers are grounded in the most relevant chunks of the document.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/GoPDFChat/internal/auth"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/customHttpClient"
	"github.com/akolanti/GoPDFChat/internal/handlers"
	"github.com/akolanti/GoPDFChat/internal/middleware"
	"github.com/akolanti/GoPDFChat/internal/rag"
	"github.com/akolanti/GoPDFChat/internal/rag/answer"
	"github.com/akolanti/GoPDFChat/internal/rag/ingest"
	"github.com/akolanti/GoPDFChat/internal/rag/retrieval"
	"github.com/akolanti/GoPDFChat/internal/server"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"golang.org/x/time/rate"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		slog.Error("Refusing to start", "error", err)
		os.Exit(1)
	}

	flag.StringVar(&settings.ListenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	logCloser := logger_i.Init(settings.Log)
	defer logCloser.Close()
	logger := logger_i.NewLogger("main")

	serviceContext := context.Background()
	httpClient := customHttpClient.New()

	embedder, err := newEmbedder(serviceContext, settings.Embedding, httpClient)
	if err != nil {
		logger.Error("Embedding provider failed to initialize", "error", err)
		os.Exit(1)
	}
	llmProvider, err := newLLMProvider(serviceContext, settings.LLM, httpClient)
	if err != nil {
		logger.Error("Chat model failed to initialize", "error", err)
		os.Exit(1)
	}
	documents, err := newDocumentStore(serviceContext, settings.Store, settings.Embedding.Dimension)
	if err != nil {
		logger.Error("Document store failed to initialize", "backend", settings.Store.Backend, "error", err)
		os.Exit(1)
	}
	logger.Info("Services ready",
		"store", settings.Store.Backend,
		"embedding", embedder.Tag(),
		"llm", settings.LLM.Provider+":"+settings.LLM.Model)

	ragService := rag.NewService(
		ingest.NewPipeline(embedder, documents),
		retrieval.NewEngine(documents, embedder, retrieval.Options{
			TopK:               settings.Retrieval.TopK,
			DiagnosticUserScan: settings.Retrieval.DiagnosticUserScan,
		}),
		answer.NewGenerator(llmProvider),
	)

	verifier := auth.NewCachedVerifier(
		auth.NewSupabaseVerifier(settings.Auth.ProjectURL, settings.Auth.JWTSecret, settings.Auth.Audience),
		config.VerifiedTokenCacheTTL,
		config.VerifiedTokenCacheSweep,
	)
	var limiter *middleware.IPRateLimiter
	if settings.RateLimit {
		limiter = middleware.NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)
	}

	router := server.NewRouter(settings.CorsOrigins, middleware.NewChain(verifier, limiter), handlers.NewRequestHandler(ragService))
	srv := server.New(settings.ListenAddr, router, closersOf(documents)...)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
	})
	go srv.Run()

	<-stopExecution
	logger.Info("Server stopped")
}
