package exports

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, realm_id, acting_user_id, status, export_path, url, size_bytes, created_at, completed_at, deleted_at`

func (r *PGRepo) Create(ctx context.Context, e Export) (Export, error) {
	const query = `
INSERT INTO realm_exports (realm_id, acting_user_id, status, export_path, url, size_bytes, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		e.RealmID,
		nullableID(e.ActingUserID),
		e.Status,
		nullableString(e.ExportPath),
		nullableString(e.URL),
		e.Size,
		e.CompletedAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Export{}, err
	}
	return e, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (Export, error) {
	e, err := scan(r.DB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM realm_exports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Export{}, ErrNotFound
		}
		return Export{}, err
	}
	return e, nil
}

func (r *PGRepo) ListByRealm(ctx context.Context, realmID int64) ([]Export, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+selectColumns+` FROM realm_exports WHERE realm_id = $1 ORDER BY id DESC`, realmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE realm_exports SET status = $2, deleted_at = $3 WHERE id = $1`, id, StatusDeleted, at)
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

func scan(s scanner) (Export, error) {
	var e Export
	var actingUserID sql.NullInt64
	var exportPath, url sql.NullString
	var completedAt, deletedAt sql.NullTime
	err := s.Scan(&e.ID, &e.RealmID, &actingUserID, &e.Status, &exportPath, &url, &e.Size, &e.CreatedAt, &completedAt, &deletedAt)
	if err != nil {
		return Export{}, err
	}
	e.ActingUserID = actingUserID.Int64
	e.ExportPath = exportPath.String
	e.URL = url.String
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		e.DeletedAt = &deletedAt.Time
	}
	return e, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
