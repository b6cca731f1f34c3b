// Command ingest loads a directory of ARGO NetCDF profile files into the
// canonical Postgres table, one scalar row per profile. It is a one-shot
// batch tool; the API server never writes profile data.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/prathoseraaj/floatChat/internal/argo"
	"github.com/prathoseraaj/floatChat/internal/ingest"
	"github.com/prathoseraaj/floatChat/internal/store"
)

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
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

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
	_ = godotenv.Load()

	dataDirFlag := flag.String("data-dir", "./argo_data", "Directory containing .nc profile files")
	patternFlag := flag.String("pattern", ingest.DefaultPattern, "Glob pattern for profile files")
	dbURLFlag := flag.String("db-url", "", "Postgres connection URL")
	tableFlag := flag.String("table", "argo_profiles", "Canonical profile table name")
	modeFlag := flag.String("mode", "replace", "Write mode: replace or append")
	yearFlag := flag.Int("year-filter", argo.DefaultYearFilter, "Keep only profiles from this year onward")
	reductionFlag := flag.String("reduction", "mean", "Per-profile reduction: mean or first")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	initLogger(envOrDefault("FLOATCHAT_LOG_LEVEL", *logLevel, "info"))

	dataDir := envOrDefault("FLOATCHAT_DATA_DIR", *dataDirFlag, "./argo_data")
	dbURL := envOrDefault("DATABASE_URL", *dbURLFlag, "")
	table := envOrDefault("FLOATCHAT_TABLE", *tableFlag, "argo_profiles")
	if dbURL == "" {
		log.Fatal("database URL required (set DATABASE_URL or pass -db-url)")
	}

	mode, err := store.ParseWriteMode(envOrDefault("FLOATCHAT_WRITE_MODE", *modeFlag, "replace"))
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}
	reduction, err := argo.ParseReductionPolicy(*reductionFlag)
	if err != nil {
		log.Fatalf("invalid reduction: %v", err)
	}
	yearFilter := *yearFlag
	if v := os.Getenv("FLOATCHAT_YEAR_FILTER"); v != "" && *yearFlag == argo.DefaultYearFilter {
		yearFilter, err = strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid FLOATCHAT_YEAR_FILTER %q: %v", v, err)
		}
	}

	ctx := context.Background()

	profileStore, err := store.NewProfileStore(ctx, dbURL, table)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer profileStore.Close()

	normalizer := argo.Normalizer{
		YearFilter: yearFilter,
		Reduction:  reduction,
	}
	pipeline := ingest.NewPipeline(profileStore, normalizer, mode, *patternFlag)

	summary, err := pipeline.Run(ctx, dataDir)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	slog.Info("done",
		"files_loaded", summary.FilesLoaded,
		"files_skipped", summary.FilesSkipped,
		"rows_written", summary.RowsWritten,
	)
	if summary.FilesLoaded == 0 {
		os.Exit(1)
	}
}
