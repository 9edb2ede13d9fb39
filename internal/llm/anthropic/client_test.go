package anthropic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo44hd/docarchive/internal/llm"
)

type fakeMessageAPI struct {
	reply string
	err   error
	last  sdk.MessageNewParams
}

func (f *fakeMessageAPI) New(_ context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: f.reply}},
	}, nil
}

func newTestClient(api messageAPI) *Client {
	return &Client{
		cfg: Config{Model: "claude-haiku-4-5"}.withDefaults(),
		api: api,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestExtractFieldsDecodesCleanReply(t *testing.T) {
	api := &fakeMessageAPI{reply: `{
		"invoice_number": "FAC-7",
		"provider_name": "Acme S.L.",
		"provider_cif": "B12345674",
		"total": "1210.00",
		"invoice_date": "2024-03-15"
	}`}
	c := newTestClient(api)

	fields, raw, err := c.ExtractFields(context.Background(), llm.ExtractRequest{OCRText: "texto"})
	require.NoError(t, err)
	assert.Equal(t, "FAC-7", fields.InvoiceNumber)
	assert.Equal(t, "Acme S.L.", fields.ProviderName)
	assert.Equal(t, "1210.00", fields.Total)
	assert.NotEmpty(t, raw)

	// the request carries model and schema-bearing prompt
	assert.Equal(t, sdk.Model("claude-haiku-4-5"), api.last.Model)
	require.Len(t, api.last.System, 1)
	assert.NotEmpty(t, api.last.System[0].Text)
}

func TestExtractFieldsSanitizesDirtyReply(t *testing.T) {
	// fenced reply, numeric money, non-ISO date: all recoverable
	api := &fakeMessageAPI{reply: "```json\n" + `{
		"invoice_number": "A-1",
		"provider_name": null,
		"total": 12.1,
		"due_date": "15/04/2024"
	}` + "\n```"}
	c := newTestClient(api)

	fields, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{OCRText: "texto"})
	require.NoError(t, err)
	assert.Equal(t, "A-1", fields.InvoiceNumber)
	assert.Equal(t, "12.10", fields.Total)
	assert.Empty(t, fields.ProviderName)
	assert.Empty(t, fields.DueDate)
}

func TestExtractFieldsRequestError(t *testing.T) {
	boom := errors.New("overloaded")
	c := newTestClient(&fakeMessageAPI{err: boom})

	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestExtractFieldsUnrecoverableReply(t *testing.T) {
	// a number where a string field belongs survives sanitize and must fail
	c := newTestClient(&fakeMessageAPI{reply: `{"invoice_number": 42}`})

	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{})
	assert.Error(t, err)
}

func TestExtractFieldsEmptyReply(t *testing.T) {
	c := newTestClient(&fakeMessageAPI{reply: "   "})
	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{})
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
