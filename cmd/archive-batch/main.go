package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/common"
	"github.com/neo44hd/docarchive/internal/documents"
	"github.com/neo44hd/docarchive/internal/export"
	"github.com/neo44hd/docarchive/internal/extract"
	"github.com/neo44hd/docarchive/internal/llm"
	"github.com/neo44hd/docarchive/internal/llm/anthropic"
	"github.com/neo44hd/docarchive/internal/ocr"
	"github.com/neo44hd/docarchive/internal/pipeline"
	"github.com/neo44hd/docarchive/internal/providers"
	repo "github.com/neo44hd/docarchive/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem = flag.Bool("inmem", false, "use in-memory stores instead of the configured database")
		dir   = flag.String("dir", "", "directory to ingest documents from (required)")
		out   = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		limit = flag.Int("limit", 0, "max pending documents to process (0 = config default)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "documentos.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *limit <= 0 {
		*limit = cfg.Pipeline.BatchLimit
	}

	var (
		docStore  repo.DocumentRepository
		provStore repo.ProviderRepository
	)
	if *inmem {
		docStore = repo.NewMemoryDocumentStore()
		provStore = repo.NewMemoryProviderStore()
	} else {
		db, dialect, cleanup, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer cleanup()
		docStore = repo.NewDocumentRepository(db, dialect, logger)
		provStore = repo.NewProviderRepository(db, dialect, logger)
	}

	// AI extractor is wired only when an API key is configured.
	var fieldExtractor llm.FieldExtractor
	if cfg.LLM.APIKey != "" {
		fieldExtractor = anthropic.NewClient(anthropic.Config{
			Model:     cfg.LLM.Model,
			APIKey:    cfg.LLM.APIKey,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout,
		}, logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set; running without AI extraction")
	}

	proc := pipeline.NewProcessor(
		logger,
		docStore,
		providers.NewResolver(provStore, logger),
		ocr.NewExtractor(ocr.Config{
			MaxPages:           cfg.OCR.MaxPages,
			MinDirectTextChars: cfg.OCR.MinDirectTextChars,
		}, nil, logger),
		extract.NewRegexExtractor(logger),
		fieldExtractor,
	)
	svc := documents.NewService(logger, docStore, provStore)

	registered := 0
	walkErr := filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if constants.ContentTypeForExt(filepath.Ext(path)) == "" {
			return nil
		}
		if _, err := svc.Register(ctx, path, ""); err != nil {
			logger.Error("failed to register document", "path", path, "error", err)
			return nil
		}
		registered++
		return nil
	})
	if walkErr != nil {
		logger.Error("failed to walk directory", "dir", *dir, "error", walkErr)
		os.Exit(1)
	}
	logger.Info("ingest.done", "dir", *dir, "registered", registered)

	res, err := proc.ProcessPending(ctx, *limit)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	xlsx, err := export.NewService(docStore, logger).ExportDocumentsXLSX(ctx, nil)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("archive-batch.done",
		"out", *out,
		"picked", res.Picked,
		"completed", res.Completed,
		"needs_review", res.NeedsReview,
		"errored", res.Errored,
	)
}

func openDatabase(ctx context.Context, cfg *common.Config, logger *slog.Logger) (db *sql.DB, dialect repo.Dialect, cleanup func(), err error) {
	switch cfg.Database.Driver {
	case "postgres":
		sqlDB, pool, err := repo.OpenPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return nil, "", nil, err
		}
		return sqlDB, repo.DialectPostgres, func() { _ = sqlDB.Close(); pool.Close() }, nil
	default:
		sqlDB, err := repo.OpenSQLite(cfg.Database.DSN, logger)
		if err != nil {
			return nil, "", nil, err
		}
		return sqlDB, repo.DialectSQLite, func() { _ = sqlDB.Close() }, nil
	}
}
