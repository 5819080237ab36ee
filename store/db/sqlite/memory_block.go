package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/store"
)

// CreateMemoryBlock inserts a memory block.
func (d *DB) CreateMemoryBlock(ctx context.Context, create *store.CreateMemoryBlock) (*store.MemoryBlock, error) {
	metadata, err := marshalJSONMap(create.Metadata)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO memory_block (id, visit_id, tier, content, metadata, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.VisitID,
		create.Tier,
		create.Content,
		metadata,
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create memory block")
	}

	return &store.MemoryBlock{
		ID:        create.ID,
		VisitID:   create.VisitID,
		Tier:      create.Tier,
		Content:   create.Content,
		Metadata:  create.Metadata,
		CreatedTs: create.CreatedTs,
	}, nil
}

// ListMemoryBlocks lists memory blocks ordered by creation time.
func (d *DB) ListMemoryBlocks(ctx context.Context, find *store.FindMemoryBlock) ([]*store.MemoryBlock, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.VisitID != nil {
		where, args = append(where, "visit_id = ?"), append(args, *find.VisitID)
	}
	if find.Tier != nil {
		where, args = append(where, "tier = ?"), append(args, *find.Tier)
	}

	query := `SELECT id, visit_id, tier, content, metadata, created_ts
		FROM memory_block
		WHERE ` + joinWhere(where) + `
		ORDER BY created_ts ASC, id ASC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory blocks")
	}
	defer rows.Close()

	var blocks []*store.MemoryBlock
	for rows.Next() {
		var block store.MemoryBlock
		var metadata string
		if err := rows.Scan(
			&block.ID,
			&block.VisitID,
			&block.Tier,
			&block.Content,
			&metadata,
			&block.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory block")
		}
		if block.Metadata, err = unmarshalJSONMap(metadata); err != nil {
			return nil, err
		}
		blocks = append(blocks, &block)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

func joinWhere(where []string) string {
	clause := where[0]
	for _, w := range where[1:] {
		clause += " AND " + w
	}
	return clause
}
