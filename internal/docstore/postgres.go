package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps documents in a single JSONB table keyed by
// (tenant_key, kind).
type PostgresStore struct {
	pool *pgxpool.Pool
}

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    tenant_key TEXT        NOT NULL,
    kind       TEXT        NOT NULL,
    revision   BIGINT      NOT NULL,
    body       JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (tenant_key, kind)
)`

// ConnectPostgres establishes a connection pool and ensures the documents
// table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, documentsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure documents table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Get retrieves one document scoped to a tenant partition.
func (s *PostgresStore) Get(ctx context.Context, tenantKey, kind string) (*Document, error) {
	doc := &Document{TenantKey: tenantKey, Kind: kind}
	err := s.pool.QueryRow(ctx,
		`SELECT revision, body FROM documents WHERE tenant_key = $1 AND kind = $2`,
		tenantKey, kind,
	).Scan(&doc.Revision, &doc.Body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get", Kind: kind, Err: err}
	}
	return doc, nil
}

// Put performs the conditional upsert described on the Store interface.
func (s *PostgresStore) Put(ctx context.Context, doc *Document) error {
	if doc.Revision == 0 {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO documents (tenant_key, kind, revision, body)
			 VALUES ($1, $2, 1, $3)
			 ON CONFLICT (tenant_key, kind) DO NOTHING`,
			doc.TenantKey, doc.Kind, doc.Body,
		)
		if err != nil {
			return &StoreError{Op: "put", Kind: doc.Kind, Err: err}
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		doc.Revision = 1
		return nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET revision = revision + 1, body = $4, updated_at = now()
		 WHERE tenant_key = $1 AND kind = $2 AND revision = $3`,
		doc.TenantKey, doc.Kind, doc.Revision, doc.Body,
	)
	if err != nil {
		return &StoreError{Op: "put", Kind: doc.Kind, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	doc.Revision++
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
