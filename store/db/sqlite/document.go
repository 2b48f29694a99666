package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// SQLite stores document embeddings as JSON text so indexed content
// survives a later move to PostgreSQL, but it cannot run similarity
// search. Use PostgreSQL with pgvector for vector features.

func (d *DB) UpsertDocument(ctx context.Context, upsert *store.Document) (*store.Document, error) {
	now := time.Now().Unix()
	metadata, err := marshalJSON(upsert.Metadata)
	if err != nil {
		return nil, err
	}
	embedding, err := marshalJSON(upsert.Embedding)
	if err != nil {
		return nil, err
	}

	if upsert.ID != 0 {
		stmt := `UPDATE document
			SET platform = ` + placeholder(1) + `, content = ` + placeholder(2) + `, metadata = ` + placeholder(3) + `, embedding = ` + placeholder(4) + `, updated_ts = ` + placeholder(5) + `
			WHERE id = ` + placeholder(6)
		if _, err := d.db.ExecContext(ctx, stmt, string(upsert.Platform), upsert.Content, metadata, embedding, now, upsert.ID); err != nil {
			return nil, errors.Wrap(err, "failed to update document")
		}
		upsert.UpdatedTs = now
		return upsert, nil
	}

	stmt := `INSERT INTO document (platform, content, metadata, embedding, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, string(upsert.Platform), upsert.Content, metadata, embedding, now, now).Scan(&upsert.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
	upsert.CreatedTs = now
	upsert.UpdatedTs = now
	return upsert, nil
}

func (d *DB) ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Platform != nil {
		where, args = append(where, "platform = "+placeholder(len(args)+1)), append(args, string(*find.Platform))
	}

	query := `SELECT id, platform, content, metadata, embedding, created_ts, updated_ts
		FROM document
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	list := make([]*store.Document, 0)
	for rows.Next() {
		doc := &store.Document{}
		var pfm, metadata, embedding string
		if err := rows.Scan(&doc.ID, &pfm, &doc.Content, &metadata, &embedding, &doc.CreatedTs, &doc.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan document")
		}
		doc.Platform = platform.ID(pfm)
		doc.Metadata = map[string]any{}
		if err := unmarshalJSON(metadata, &doc.Metadata); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(embedding, &doc.Embedding); err != nil {
			return nil, err
		}
		list = append(list, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate documents")
	}

	return list, nil
}

// MatchDocuments is NOT supported for SQLite.
// Vector similarity search requires PostgreSQL with the pgvector extension.
func (d *DB) MatchDocuments(_ context.Context, _ *store.MatchDocumentsOptions) ([]*store.DocumentMatch, error) {
	return nil, errors.New("document similarity search requires PostgreSQL with pgvector extension")
}

func (d *DB) DeleteDocument(ctx context.Context, delete *store.DeleteDocument) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM document WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New("document not found")
	}
	return nil
}
