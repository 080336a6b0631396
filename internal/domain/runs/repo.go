package runs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ db *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, run Run) error {
	alloc, err := json.Marshal(run.Allocation)
	if err != nil {
		return fmt.Errorf("encode allocation: %w", err)
	}
	const q = `
		INSERT INTO placement_runs (id, chat_id, order_id, submit, ok, confirmation, stage, allocation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = r.db.Exec(ctx, q,
		run.ID, run.ChatID, run.OrderID, run.Submit, run.OK, run.Confirmation, run.Stage, alloc)
	return err
}

// ListByChat returns the latest runs of a chat, newest first.
func (r *Repo) ListByChat(ctx context.Context, chatID int64, limit int) ([]Run, error) {
	const q = `SELECT id,chat_id,order_id,submit,ok,confirmation,stage,allocation,created_at
	           FROM placement_runs
	           WHERE chat_id=$1
	           ORDER BY created_at DESC
	           LIMIT $2`
	rows, err := r.db.Query(ctx, q, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run Run
			raw []byte
		)
		if err := rows.Scan(
			&run.ID,
			&run.ChatID,
			&run.OrderID,
			&run.Submit,
			&run.OK,
			&run.Confirmation,
			&run.Stage,
			&raw,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &run.Allocation); err != nil {
			return nil, fmt.Errorf("decode allocation of run %s: %w", run.ID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
