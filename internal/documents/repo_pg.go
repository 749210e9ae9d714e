package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a document and all of its pages in one transaction.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const docQuery = `
INSERT INTO documents (id, user_id, file_name, original_filename, storage_key, page_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	originalName := doc.OriginalFilename
	if originalName == "" {
		originalName = doc.FileName
	}

	if _, err = tx.ExecContext(ctx, docQuery,
		doc.ID,
		doc.UserID,
		doc.FileName,
		originalName,
		doc.StorageKey,
		len(doc.Pages),
		doc.CreatedAt,
	); err != nil {
		return err
	}

	const pageQuery = `
INSERT INTO pages (document_id, page_number, text, explanation, audio_ref)
VALUES ($1, $2, $3, $4, $5)`

	for _, page := range doc.Pages {
		if _, err = tx.ExecContext(ctx, pageQuery,
			doc.ID,
			page.Number,
			page.Text,
			page.Explanation,
			page.AudioRef,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID fetches a document with its pages in page-number order, scoped to
// the owning user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const docQuery = `
SELECT id, user_id, file_name, original_filename, storage_key, page_count, created_at
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`

	var doc Document
	var originalName sql.NullString
	err := r.DB.QueryRowContext(ctx, docQuery, userID, documentID).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&originalName,
		&doc.StorageKey,
		&doc.PageCount,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if originalName.Valid {
		doc.OriginalFilename = originalName.String
	}

	const pagesQuery = `
SELECT document_id, page_number, text, explanation, audio_ref
FROM pages
WHERE document_id = $1
ORDER BY page_number ASC`

	rows, err := r.DB.QueryContext(ctx, pagesQuery, doc.ID)
	if err != nil {
		return Document{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.DocumentID, &page.Number, &page.Text, &page.Explanation, &page.AudioRef); err != nil {
			return Document{}, err
		}
		doc.Pages = append(doc.Pages, page)
	}
	if err := rows.Err(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents newest-first, without page bodies.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, file_name, original_filename, storage_key, page_count, created_at
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var originalName sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.FileName,
			&originalName,
			&doc.StorageKey,
			&doc.PageCount,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if originalName.Valid {
			doc.OriginalFilename = originalName.String
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdatePage persists one page's explanation and audio reference.
func (r *PGRepo) UpdatePage(ctx context.Context, page Page) error {
	const query = `
UPDATE pages
SET explanation = $1, audio_ref = $2
WHERE document_id = $3 AND page_number = $4`

	res, err := r.DB.ExecContext(ctx, query, page.Explanation, page.AudioRef, page.DocumentID, page.Number)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
