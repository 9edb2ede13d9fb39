package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/internal/entity"
)

type providerRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewProviderRepository returns a ProviderRepository over an open store.
func NewProviderRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) ProviderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &providerRepository{db: db, dialect: dialect, logger: logger}
}

var _ ProviderRepository = (*providerRepository)(nil)

const providerColumns = `id, name, cif, address, phone, email, auto_created, created_from_document, created_at`

func (r *providerRepository) FilterByCIF(ctx context.Context, cif string) ([]*entity.Provider, error) {
	return r.filter(ctx, `cif = ?`, cif)
}

func (r *providerRepository) FilterByName(ctx context.Context, name string) ([]*entity.Provider, error) {
	return r.filter(ctx, `name = ?`, name)
}

func (r *providerRepository) filter(ctx context.Context, where string, arg any) ([]*entity.Provider, error) {
	q := rebind(r.dialect, `SELECT `+providerColumns+` FROM providers WHERE `+where+` ORDER BY created_at`)
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("filter providers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}
	return out, nil
}

func (r *providerRepository) Create(ctx context.Context, p *entity.Provider) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var fromDoc any
	if p.CreatedFromDocument != nil {
		fromDoc = p.CreatedFromDocument.String()
	}

	q := rebind(r.dialect, `INSERT INTO providers (`+providerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		p.ID.String(), p.Name, p.CIF, p.Address, p.Phone, p.Email,
		boolToInt(p.AutoCreated), fromDoc, p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("failed to create provider", "id", p.ID, "error", err)
		return fmt.Errorf("insert provider: %w", err)
	}
	return nil
}

func (r *providerRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	q := rebind(r.dialect, `SELECT `+providerColumns+` FROM providers WHERE id = ?`)
	p, err := scanProvider(r.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("provider %s: %w", id, errNotFound)
	}
	return p, err
}

func scanProvider(row rowScanner) (*entity.Provider, error) {
	var (
		p         entity.Provider
		idStr     string
		auto      int
		fromDoc   sql.NullString
		createdAt string
	)
	if err := row.Scan(&idStr, &p.Name, &p.CIF, &p.Address, &p.Phone, &p.Email,
		&auto, &fromDoc, &createdAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse provider id %q: %w", idStr, err)
	}
	p.ID = id
	p.AutoCreated = auto != 0
	if fromDoc.Valid {
		if docID, err := uuid.Parse(fromDoc.String); err == nil {
			p.CreatedFromDocument = &docID
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}
