package attachments

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, realm_id, owner_id, path_id, file_name, content_type, size_bytes, created_at`

func (r *PGRepo) Create(ctx context.Context, a Attachment) (Attachment, error) {
	const query = `
INSERT INTO attachments (realm_id, owner_id, path_id, file_name, content_type, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		a.RealmID,
		a.OwnerID,
		a.PathID,
		a.FileName,
		a.ContentType,
		a.Size,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (Attachment, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM attachments WHERE id = $1`, id)
}

func (r *PGRepo) GetByPathID(ctx context.Context, pathID string) (Attachment, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM attachments WHERE path_id = $1`, pathID)
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID int64) ([]Attachment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+selectColumns+` FROM attachments WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
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

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (Attachment, error) {
	a, err := scan(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attachment{}, ErrNotFound
		}
		return Attachment{}, err
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Attachment, error) {
	var a Attachment
	err := s.Scan(&a.ID, &a.RealmID, &a.OwnerID, &a.PathID, &a.FileName, &a.ContentType, &a.Size, &a.CreatedAt)
	return a, err
}
