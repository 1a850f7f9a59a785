package users

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

// Upsert creates the user or refreshes its profile fields. Avatar fields are
// only changed through UpdateAvatar.
func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, realm_id, email, full_name, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE SET
  realm_id = EXCLUDED.realm_id,
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  is_active = EXCLUDED.is_active`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.RealmID,
		user.Email,
		user.FullName,
		user.IsActive,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID int64) (User, error) {
	const query = `
SELECT id, realm_id, email, full_name, avatar_source, avatar_version, avatar_hash, is_active, created_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	var avatarHash sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.RealmID,
		&user.Email,
		&user.FullName,
		&user.AvatarSource,
		&user.AvatarVersion,
		&avatarHash,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if avatarHash.Valid {
		user.AvatarHash = avatarHash.String
	}
	return user, nil
}

func (r *PGRepo) UpdateAvatar(ctx context.Context, userID int64, change AvatarChange) error {
	const query = `
UPDATE users
SET avatar_source = $2, avatar_version = $3, avatar_hash = $4
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, change.Source, change.Version, nullableString(change.Hash))
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

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
