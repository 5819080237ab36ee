package postgres

import (
	"context"
	"fmt"

	"github.com/clinsense/clinsense/store"
)

func (d *DB) CreateMemoryBlock(ctx context.Context, create *store.CreateMemoryBlock) (*store.MemoryBlock, error) {
	metadata, err := marshalJSONMap(create.Metadata)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO memory_block (id, visit_id, tier, content, metadata, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.VisitID,
		create.Tier,
		create.Content,
		metadata,
		create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create memory block: %w", err)
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

func (d *DB) ListMemoryBlocks(ctx context.Context, find *store.FindMemoryBlock) ([]*store.MemoryBlock, error) {
	query := `
		SELECT id, visit_id, tier, content, metadata, created_ts
		FROM memory_block
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.VisitID != nil {
		query += fmt.Sprintf(" AND visit_id = $%d", argIndex)
		args = append(args, *find.VisitID)
		argIndex++
	}
	if find.Tier != nil {
		query += fmt.Sprintf(" AND tier = $%d", argIndex)
		args = append(args, *find.Tier)
		argIndex++
	}

	query += " ORDER BY created_ts ASC, id ASC"
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*store.MemoryBlock
	for rows.Next() {
		var block store.MemoryBlock
		var metadata []byte
		if err := rows.Scan(
			&block.ID,
			&block.VisitID,
			&block.Tier,
			&block.Content,
			&metadata,
			&block.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory block: %w", err)
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
