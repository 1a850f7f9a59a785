package emoji

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, e Emoji) (Emoji, error) {
	const query = `
INSERT INTO realm_emoji (realm_id, author_id, name, created_at)
VALUES ($1, $2, $3, now())
RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, e.RealmID, nullableID(e.AuthorID), e.Name).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Emoji{}, ErrNameTaken
		}
		return Emoji{}, err
	}
	return e, nil
}

func (r *PGRepo) SetFile(ctx context.Context, id int64, fileName string, animated bool) error {
	return r.exec(ctx, `UPDATE realm_emoji SET file_name = $2, is_animated = $3 WHERE id = $1`, id, fileName, animated)
}

func (r *PGRepo) GetActiveByName(ctx context.Context, realmID int64, name string) (Emoji, error) {
	const query = `
SELECT id, realm_id, author_id, name, file_name, is_animated, deactivated, created_at
FROM realm_emoji
WHERE realm_id = $1 AND name = $2 AND NOT deactivated`
	e, err := scan(r.DB.QueryRowContext(ctx, query, realmID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Emoji{}, ErrNotFound
		}
		return Emoji{}, err
	}
	return e, nil
}

func (r *PGRepo) ListByRealm(ctx context.Context, realmID int64) ([]Emoji, error) {
	const query = `
SELECT id, realm_id, author_id, name, file_name, is_animated, deactivated, created_at
FROM realm_emoji
WHERE realm_id = $1
ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, realmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Emoji
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepo) Deactivate(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE realm_emoji SET deactivated = TRUE WHERE id = $1`, id)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Emoji, error) {
	var e Emoji
	var authorID sql.NullInt64
	var fileName sql.NullString
	if err := s.Scan(&e.ID, &e.RealmID, &authorID, &e.Name, &fileName, &e.IsAnimated, &e.Deactivated, &e.CreatedAt); err != nil {
		return Emoji{}, err
	}
	e.AuthorID = authorID.Int64
	e.FileName = fileName.String
	return e, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
