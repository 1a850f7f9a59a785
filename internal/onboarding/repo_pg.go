package onboarding

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) ListSeen(ctx context.Context, userID int64) ([]SeenStep, error) {
	const query = `
SELECT user_id, step, seen_at
FROM onboarding_steps
WHERE user_id = $1
ORDER BY step`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeenStep
	for rows.Next() {
		var s SeenStep
		if err := rows.Scan(&s.UserID, &s.Step, &s.SeenAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkSeen(ctx context.Context, userID int64, step string, at time.Time) error {
	const query = `
INSERT INTO onboarding_steps (user_id, step, seen_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, step) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, userID, step, at)
	return err
}

func (r *PGRepo) Copy(ctx context.Context, steps []SeenStep) error {
	if len(steps) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO onboarding_steps (user_id, step, seen_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, step) DO NOTHING`
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx, query, s.UserID, s.Step, s.SeenAt); err != nil {
			return fmt.Errorf("copy onboarding step %s: %w", s.Step, err)
		}
	}
	return tx.Commit()
}
