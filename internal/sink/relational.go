package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
	"github.com/gyaneshwarpardhi/blockwatch/internal/store"
)

// rowsPerStatement bounds bind parameters per INSERT; SQLite and PostgreSQL
// both cap the parameter count of a single statement.
const rowsPerStatement = 100

const insertPrefix = "INSERT INTO bbdata (date, player, action, world, x, y, z, type, data, rbacked) VALUES "

// Relational writes batches into the bbdata table.
type Relational struct {
	db *store.DB
}

// NewRelational returns a sink writing through db.
func NewRelational(db *store.DB) *Relational {
	return &Relational{db: db}
}

// Write commits the whole batch in one transaction or nothing at all.
// It never retries; a returned error means no row of batch was stored.
func (r *Relational) Write(ctx context.Context, batch []event.Event) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("relational write: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(batch); start += rowsPerStatement {
		end := min(start+rowsPerStatement, len(batch))
		query, args := r.buildInsert(batch[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("relational write: insert rows %d-%d of %d: %w", start, end-1, len(batch), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("relational write: commit: %w", err)
	}
	return nil
}

func (r *Relational) buildInsert(events []event.Event) (string, []any) {
	d := r.db.Dialect()
	var b strings.Builder
	b.WriteString(insertPrefix)
	args := make([]any, 0, len(events)*9)
	n := 1
	for i, ev := range events {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for c := 0; c < 9; c++ {
			b.WriteString(d.Placeholder(n))
			b.WriteString(",")
			n++
		}
		b.WriteString("0)")

		row := NewRow(ev)
		args = append(args, row.Date, row.Player, row.Action, row.World, row.X, row.Y, row.Z, row.Type, row.Data)
	}
	return b.String(), args
}
