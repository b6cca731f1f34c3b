package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/prathoseraaj/floatChat/internal/ai"
	"github.com/prathoseraaj/floatChat/internal/api"
	"github.com/prathoseraaj/floatChat/internal/query"
	"github.com/prathoseraaj/floatChat/internal/schemadoc"
	"github.com/prathoseraaj/floatChat/internal/store"
)

// initLogger configures the global slog default with JSON output.
func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(h))
}

// envOrDefault resolves a configuration value with the priority:
//
//	flag (if explicitly set, i.e. differs from defaultVal) > env var > default.
func envOrDefault(envKey, flagVal, defaultVal string) string {
	if flagVal != defaultVal {
		return flagVal
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultVal
}

func main() {
	// Local development keeps credentials in a .env file; a missing file
	// is fine in deployed environments.
	_ = godotenv.Load()

	// ---- Flags -----------------------------------------------------------
	portFlag := flag.Int("port", 8000, "HTTP server port")
	dbURLFlag := flag.String("db-url", "", "Postgres connection URL")
	tableFlag := flag.String("table", "argo_profiles", "Canonical profile table name")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	aiProviderFlag := flag.String("ai-provider", "gemini", "Model provider: gemini or bedrock")
	aiModelFlag := flag.String("ai-model", "", "LLM model ID (provider-specific)")
	aiEmbedModelFlag := flag.String("ai-embed-model", "", "Embedding model ID (provider-specific)")
	aiRegionFlag := flag.String("ai-region", "us-east-1", "AWS region for Bedrock provider")
	chromaPathFlag := flag.String("chroma-path", "./chroma_db", "Directory for the persistent schema index")
	flag.Parse()

	// Resolve config: flag > env var > default.
	portStr := envOrDefault("FLOATCHAT_PORT", strconv.Itoa(*portFlag), "8000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("invalid port value %q: %v", portStr, err)
	}
	dbURL := envOrDefault("DATABASE_URL", *dbURLFlag, "")
	table := envOrDefault("FLOATCHAT_TABLE", *tableFlag, "argo_profiles")
	aiProvider := envOrDefault("FLOATCHAT_AI_PROVIDER", *aiProviderFlag, "gemini")
	aiModel := envOrDefault("FLOATCHAT_AI_MODEL", *aiModelFlag, "")
	aiEmbedModel := envOrDefault("FLOATCHAT_AI_EMBED_MODEL", *aiEmbedModelFlag, "")
	aiRegion := envOrDefault("AWS_REGION", *aiRegionFlag, "us-east-1")
	chromaPath := envOrDefault("FLOATCHAT_CHROMA_PATH", *chromaPathFlag, "./chroma_db")

	initLogger(envOrDefault("FLOATCHAT_LOG_LEVEL", *logLevel, "info"))

	if dbURL == "" {
		log.Fatal("database URL required (set DATABASE_URL or pass -db-url)")
	}

	ctx := context.Background()

	// ---- Storage ---------------------------------------------------------
	profileStore, err := store.NewProfileStore(ctx, dbURL, table)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}

	// ---- AI provider -----------------------------------------------------
	provider, err := ai.NewProvider(ctx, ai.ProviderConfig{
		Kind:           ai.ProviderKind(aiProvider),
		Model:          aiModel,
		EmbeddingModel: aiEmbedModel,
		APIKey:         os.Getenv("GEMINI_API_KEY"),
		Region:         aiRegion,
	})
	if err != nil {
		log.Fatalf("failed to initialise AI provider: %v", err)
	}
	slog.Info("AI provider ready", "provider", provider.Name())

	// ---- Schema index ----------------------------------------------------
	retriever, err := schemadoc.NewRetriever(chromaPath, provider)
	if err != nil {
		log.Fatalf("failed to open schema index: %v", err)
	}
	if err := retriever.Seed(ctx); err != nil {
		log.Fatalf("failed to seed schema index: %v", err)
	}

	// ---- Chat pipeline + HTTP server ------------------------------------
	chat := query.NewChatService(provider, retriever, profileStore)
	srv := api.NewServer(chat)
	srv.RegisterRoutes()

	slog.Info("floatchat starting",
		"port", port,
		"table", table,
		"ai_provider", provider.Name(),
		"schema_docs", retriever.Count(),
	)

	addr := fmt.Sprintf(":%d", port)

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// ---- Graceful shutdown -----------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := provider.Close(); err != nil {
		slog.Error("provider close error", "error", err)
	}
	profileStore.Close()

	slog.Info("floatchat shutdown complete")
}
