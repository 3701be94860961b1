package document

import (
	"context"
	"database/sql"

	"scholaria/backend/internal/worker"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (tenant, title, filename, path, content_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		doc.Tenant, doc.Title, doc.Filename, doc.Path, doc.ContentHash, doc.Status).
		Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *PostgresRepo) ExistsByHash(ctx context.Context, tenant, hash string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM documents WHERE tenant = $1 AND content_hash = $2 AND deleted_at IS NULL)`
	err := r.db.QueryRowContext(ctx, query, tenant, hash).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) Get(ctx context.Context, tenant, id string) (*Document, error) {
	doc := &Document{}
	query := `SELECT id, tenant, title, filename, path, status, error_detail, chunk_count, embedded_count, created_at, updated_at
		FROM documents WHERE tenant = $1 AND id = $2 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, tenant, id).Scan(
		&doc.ID, &doc.Tenant, &doc.Title, &doc.Filename, &doc.Path,
		&doc.Status, &doc.ErrorDetail, &doc.ChunkCount, &doc.EmbeddedCount, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepo) List(ctx context.Context, tenant string) ([]Document, error) {
	query := `SELECT id, tenant, title, filename, status, error_detail, chunk_count, embedded_count, created_at, updated_at
		FROM documents WHERE tenant = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Tenant, &d.Title, &d.Filename,
			&d.Status, &d.ErrorDetail, &d.ChunkCount, &d.EmbeddedCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateStatus also clears any stale error detail; the detail only ever
// describes the current failed state, set through MarkFailed.
func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE documents SET status = $1, error_detail = '', updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id, detail string) error {
	query := `UPDATE documents SET status = $1, error_detail = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, worker.StatusFailed, detail, id)
	return err
}

func (r *PostgresRepo) UpdateCounts(ctx context.Context, id string, chunkCount, embeddedCount int) error {
	query := `UPDATE documents SET chunk_count = $1, embedded_count = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, chunkCount, embeddedCount, id)
	return err
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, tenant, id string) error {
	query := `UPDATE documents SET deleted_at = NOW() WHERE tenant = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, tenant, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context, tenant string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM documents WHERE tenant = $1 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, tenant).Scan(&count)
	return count, err
}
