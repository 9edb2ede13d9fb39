package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/internal/llm"
)

// messageAPI is the slice of the SDK the extractor uses; tests swap it out.
type messageAPI interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements llm.FieldExtractor over the Anthropic Messages API.
type Client struct {
	cfg Config
	api messageAPI
	log *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := sdk.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{cfg: cfg.withDefaults(), api: &c.Messages, log: logger}
}

// ExtractFields sends the document text to the model with the invoice schema
// as output contract, validates the reply against that schema (with a
// lenient sanitize pass) and decodes it into the flat record.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.InvoiceFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.OCRText),
		"content_type", req.ContentType,
	)

	schema := llm.BuildInvoiceJSONSchema()
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return llm.InvoiceFields{}, nil, fmt.Errorf("marshal schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	msg, err := c.api.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		System:    []sdk.TextBlockParam{{Text: llm.BuildSystemPrompt()}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(llm.BuildUserPrompt(req, string(schemaJSON)))),
		},
	})
	if err != nil {
		c.log.Error("llm.extract.request_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.InvoiceFields{}, nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	raw := []byte(stripFences(text.String()))
	if len(raw) == 0 {
		return llm.InvoiceFields{}, nil, fmt.Errorf("empty model response")
	}

	if vErr := llm.ValidateJSONAgainstSchema(schema, raw); vErr != nil {
		cleaned, dropped, sErr := llm.SanitizeFields(raw)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed", "req_id", rid, "error", sErr)
			return llm.InvoiceFields{}, raw, fmt.Errorf("sanitize model output: %w", sErr)
		}
		if vErr2 := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr2 != nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr2, "content", string(raw),
			)
			return llm.InvoiceFields{}, raw, fmt.Errorf("schema validation failed: %w", vErr2)
		}
		c.log.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		raw = cleaned
	}

	var fields llm.InvoiceFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return llm.InvoiceFields{}, raw, fmt.Errorf("decode model output: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"invoice_number", fields.InvoiceNumber,
		"provider", fields.ProviderName,
		"total", fields.Total,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, raw, nil
}

// stripFences removes a ``` or ```json fence when the model wraps its
// answer despite the instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
