package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
)

type documentRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewDocumentRepository returns a DocumentRepository over an open store.
func NewDocumentRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, dialect: dialect, logger: logger}
}

var _ DocumentRepository = (*documentRepository)(nil)

const documentColumns = `id, file_url, content_type, processing_status, ocr_result,
	extracted_record, validation, provider_link, manually_edited, error_message,
	processing_started_at, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	q := rebind(r.dialect, `INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		doc.ID.String(),
		doc.FileURL,
		doc.ContentType,
		string(doc.ProcessingStatus),
		marshalNullable(doc.OCRResult),
		marshalNullable(doc.ExtractedRecord),
		marshalNullable(doc.Validation),
		marshalNullable(doc.ProviderLink),
		boolToInt(doc.ManuallyEdited),
		nullString(doc.ErrorMessage),
		nullTime(doc.ProcessingStartedAt),
		doc.CreatedAt.Format(time.RFC3339Nano),
		doc.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("failed to create document", "id", doc.ID, "error", err)
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	q := rebind(r.dialect, `SELECT `+documentColumns+` FROM documents WHERE id = ?`)
	row := r.db.QueryRowContext(ctx, q, id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, errNotFound)
	}
	return doc, err
}

func (r *documentRepository) List(ctx context.Context, status *constants.DocumentStatus, limit int) ([]*entity.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if status != nil {
		q += ` WHERE processing_status = ?`
		args = append(args, string(*status))
	}
	q += ` ORDER BY created_at`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, q), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	return r.update(ctx, id, `processing_status = ?`, string(status))
}

func (r *documentRepository) MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	return r.update(ctx, id,
		`processing_status = ?, processing_started_at = ?, error_message = NULL`,
		string(constants.StatusProcessing), startedAt.UTC().Format(time.RFC3339Nano))
}

func (r *documentRepository) SaveOCR(ctx context.Context, id uuid.UUID, ocr *entity.OCRResult) error {
	return r.update(ctx, id, `ocr_result = ?`, marshalNullable(ocr))
}

func (r *documentRepository) SaveExtraction(ctx context.Context, id uuid.UUID, rec *entity.ExtractionCandidate, report *entity.ValidationReport, status constants.DocumentStatus) error {
	return r.update(ctx, id,
		`extracted_record = ?, validation = ?, processing_status = ?`,
		marshalNullable(rec), marshalNullable(report), string(status))
}

func (r *documentRepository) SaveRecord(ctx context.Context, id uuid.UUID, rec *entity.ExtractionCandidate, manuallyEdited bool) error {
	return r.update(ctx, id,
		`extracted_record = ?, manually_edited = ?`,
		marshalNullable(rec), boolToInt(manuallyEdited))
}

func (r *documentRepository) SaveProviderLink(ctx context.Context, id uuid.UUID, link *entity.ProviderLink) error {
	return r.update(ctx, id, `provider_link = ?`, marshalNullable(link))
}

func (r *documentRepository) SaveError(ctx context.Context, id uuid.UUID, message string) error {
	return r.update(ctx, id,
		`processing_status = ?, error_message = ?`,
		string(constants.StatusError), message)
}

func (r *documentRepository) ResetForReprocess(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id,
		`processing_status = ?, ocr_result = NULL, extracted_record = NULL,
		 validation = NULL, error_message = NULL, manually_edited = 0,
		 processing_started_at = NULL`,
		string(constants.StatusPending))
}

// update runs a single-row UPDATE with the shared updated_at bump.
func (r *documentRepository) update(ctx context.Context, id uuid.UUID, set string, args ...any) error {
	q := rebind(r.dialect, `UPDATE documents SET `+set+`, updated_at = ? WHERE id = ?`)
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano), id.String())
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to update document", "id", id, "error", err)
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, errNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc       entity.Document
		idStr     string
		status    string
		ocrJSON   sql.NullString
		recJSON   sql.NullString
		valJSON   sql.NullString
		linkJSON  sql.NullString
		edited    int
		errMsg    sql.NullString
		startedAt sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&idStr, &doc.FileURL, &doc.ContentType, &status, &ocrJSON,
		&recJSON, &valJSON, &linkJSON, &edited, &errMsg, &startedAt,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse document id %q: %w", idStr, err)
	}
	doc.ID = id
	doc.ProcessingStatus = constants.DocumentStatus(status)
	doc.ManuallyEdited = edited != 0
	if errMsg.Valid {
		doc.ErrorMessage = &errMsg.String
	}
	if startedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, startedAt.String); err == nil {
			doc.ProcessingStartedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		doc.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		doc.UpdatedAt = t
	}

	if err := unmarshalNullable(ocrJSON, &doc.OCRResult); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(recJSON, &doc.ExtractedRecord); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(valJSON, &doc.Validation); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(linkJSON, &doc.ProviderLink); err != nil {
		return nil, err
	}
	return &doc, nil
}

// marshalNullable encodes v as JSON, or SQL NULL for a nil pointer.
func marshalNullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

func unmarshalNullable[T any](col sql.NullString, dst **T) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return fmt.Errorf("decode stored json: %w", err)
	}
	*dst = &v
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
