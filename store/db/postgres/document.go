package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// UpsertDocument inserts or updates an indexed document.
func (d *DB) UpsertDocument(ctx context.Context, upsert *store.Document) (*store.Document, error) {
	now := time.Now().Unix()
	metadata, err := marshalJSON(upsert.Metadata)
	if err != nil {
		return nil, err
	}
	vector := pgvector.NewVector(upsert.Embedding)

	if upsert.ID != 0 {
		stmt := `UPDATE document
			SET platform = ` + placeholder(1) + `, content = ` + placeholder(2) + `, metadata = ` + placeholder(3) + `, embedding = ` + placeholder(4) + `, updated_ts = ` + placeholder(5) + `
			WHERE id = ` + placeholder(6) + `
			RETURNING created_ts, updated_ts`
		if err := d.db.QueryRowContext(ctx, stmt, string(upsert.Platform), upsert.Content, metadata, vector, now, upsert.ID).Scan(&upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to update document")
		}
		return upsert, nil
	}

	stmt := `INSERT INTO document (platform, content, metadata, embedding, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, string(upsert.Platform), upsert.Content, metadata, vector, now, now).Scan(&upsert.ID, &upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
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
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate documents")
	}

	return list, nil
}

// MatchDocuments performs cosine-similarity search over the document
// embeddings, mirroring the match_documents RPC contract: similarity is
// 1 - cosine distance, results above the threshold, best first.
func (d *DB) MatchDocuments(ctx context.Context, opts *store.MatchDocumentsOptions) ([]*store.DocumentMatch, error) {
	if len(opts.Embedding) == 0 {
		return nil, errors.New("embedding is required")
	}
	count := opts.Count
	if count <= 0 {
		count = 10
	}

	where, args := []string{"embedding IS NOT NULL"}, []any{}
	vector := pgvector.NewVector(opts.Embedding)
	args = append(args, vector)
	similarity := "1 - (embedding <=> " + placeholder(1) + ")"

	if opts.Platform != nil {
		where, args = append(where, "platform = "+placeholder(len(args)+1)), append(args, string(*opts.Platform))
	}
	if opts.Threshold > 0 {
		where, args = append(where, similarity+" >= "+placeholder(len(args)+1)), append(args, opts.Threshold)
	}

	args = append(args, count)
	query := `SELECT id, platform, content, metadata, embedding, created_ts, updated_ts, ` + similarity + ` AS similarity
		FROM document
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + placeholder(1) + `
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to match documents")
	}
	defer rows.Close()

	matches := make([]*store.DocumentMatch, 0)
	for rows.Next() {
		doc := &store.Document{}
		var pfm string
		var metadata []byte
		var vec pgvector.Vector
		var similarity float32
		if err := rows.Scan(&doc.ID, &pfm, &doc.Content, &metadata, &vec, &doc.CreatedTs, &doc.UpdatedTs, &similarity); err != nil {
			return nil, errors.Wrap(err, "failed to scan document match")
		}
		doc.Platform = platform.ID(pfm)
		doc.Embedding = vec.Slice()
		doc.Metadata = map[string]any{}
		if err := unmarshalJSON(metadata, &doc.Metadata); err != nil {
			return nil, err
		}
		matches = append(matches, &store.DocumentMatch{Document: doc, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate document matches")
	}

	return matches, nil
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

func scanDocument(scan func(...any) error) (*store.Document, error) {
	doc := &store.Document{}
	var pfm string
	var metadata []byte
	var vec pgvector.Vector
	if err := scan(&doc.ID, &pfm, &doc.Content, &metadata, &vec, &doc.CreatedTs, &doc.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to scan document")
	}
	doc.Platform = platform.ID(pfm)
	doc.Embedding = vec.Slice()
	doc.Metadata = map[string]any{}
	if err := unmarshalJSON(metadata, &doc.Metadata); err != nil {
		return nil, err
	}
	return doc, nil
}
