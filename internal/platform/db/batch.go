package db

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Batch collects the writes of one operation. Operations validate every precondition, stage
// their writes in a Batch and only then Commit, so a rejected operation never touches storage.
type Batch struct {
	db  *DB
	ops []batchOp
}

type batchOp struct {
	key    string
	body   []byte
	remove bool
}

// NewBatch returns an empty Batch.
func (db *DB) NewBatch() *Batch {
	return &Batch{db: db}
}

// Put stages a write. A later Put or Remove of the same key replaces it.
func (b *Batch) Put(key string, body []byte) {
	b.stage(batchOp{key: key, body: body})
}

// Remove stages a delete.
func (b *Batch) Remove(key string) {
	b.stage(batchOp{key: key, remove: true})
}

// Len returns the number of staged keys.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Commit applies the staged writes in the order they were first staged.
func (b *Batch) Commit(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.Batch.Commit")
	defer span.End()

	for _, op := range b.ops {
		if op.remove {
			if err := b.db.Remove(ctx, op.key); err != nil {
				return errors.Wrapf(err, "remove %s", op.key)
			}
			continue
		}

		if err := b.db.Put(ctx, op.key, op.body); err != nil {
			return errors.Wrapf(err, "put %s", op.key)
		}
	}

	b.ops = nil
	return nil
}

func (b *Batch) stage(op batchOp) {
	for i := range b.ops {
		if b.ops[i].key == op.key {
			b.ops[i] = op
			return
		}
	}
	b.ops = append(b.ops, op)
}
