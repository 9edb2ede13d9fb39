package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/common"
	"github.com/neo44hd/docarchive/internal/extract"
	"github.com/neo44hd/docarchive/internal/llm"
	"github.com/neo44hd/docarchive/internal/llm/anthropic"
	"github.com/neo44hd/docarchive/internal/merge"
	"github.com/neo44hd/docarchive/internal/ocr"
	"github.com/neo44hd/docarchive/internal/validation"
)

// runextract runs text + field extraction on a single file and prints the
// merged record and its validation report as JSON. No database involved;
// handy for tuning patterns against a problem document.
func main() {
	var (
		file = flag.String("file", "", "path to the document (required)")
		noAI = flag.Bool("no-ai", false, "skip the AI extractor even when an API key is configured")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *file == "" {
		logger.Error("usage: runextract -file <path> [-no-ai]")
		os.Exit(2)
	}
	contentType := constants.ContentTypeForExt(filepath.Ext(*file))
	if contentType == "" {
		logger.Error("unsupported file type", "file", *file)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extractor := ocr.NewExtractor(ocr.Config{
		MaxPages:           cfg.OCR.MaxPages,
		MinDirectTextChars: cfg.OCR.MinDirectTextChars,
	}, nil, logger)
	res, err := extractor.ProcessDocument(ctx, *file, contentType)
	if err != nil {
		logger.Error("text extraction failed", "error", err)
		os.Exit(1)
	}
	text := res.Text
	logger.Info("text ready", "chars", len(text))

	rx := extract.NewRegexExtractor(logger).Extract(text)

	var ai *llm.InvoiceFields
	if !*noAI && cfg.LLM.APIKey != "" && (rx == nil || rx.Confidence < constants.AIFallbackThreshold) {
		client := anthropic.NewClient(anthropic.Config{
			Model:     cfg.LLM.Model,
			APIKey:    cfg.LLM.APIKey,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout,
		}, logger)
		fields, _, err := client.ExtractFields(ctx, llm.ExtractRequest{
			FileURL:     *file,
			ContentType: contentType,
			OCRText:     text,
		})
		if err != nil {
			logger.Warn("ai extraction failed, continuing with patterns only", "error", err)
		} else {
			ai = &fields
		}
	}

	record := merge.Merge(rx, ai)
	report := validation.Validate(record)

	out, err := json.MarshalIndent(map[string]any{
		"record":     record,
		"validation": report,
	}, "", "  ")
	if err != nil {
		logger.Error("marshal output", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
