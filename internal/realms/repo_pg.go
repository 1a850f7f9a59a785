package realms

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, realm Realm) error {
	const query = `
INSERT INTO realms (id, string_id, name, url, created_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (id) DO UPDATE SET
  string_id = EXCLUDED.string_id,
  name = EXCLUDED.name,
  url = EXCLUDED.url`
	_, err := r.DB.ExecContext(ctx, query, realm.ID, realm.StringID, realm.Name, realm.URL)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (Realm, error) {
	const query = `
SELECT id, string_id, name, url, icon_source, icon_version, logo_source, logo_version,
       night_logo_source, night_logo_version, created_at
FROM realms
WHERE id = $1`
	var realm Realm
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&realm.ID,
		&realm.StringID,
		&realm.Name,
		&realm.URL,
		&realm.IconSource,
		&realm.IconVersion,
		&realm.LogoSource,
		&realm.LogoVersion,
		&realm.NightLogoSource,
		&realm.NightLogoVersion,
		&realm.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Realm{}, ErrNotFound
		}
		return Realm{}, err
	}
	return realm, nil
}

func (r *PGRepo) UpdateIcon(ctx context.Context, id int64, change BrandingChange) error {
	return r.exec(ctx, `UPDATE realms SET icon_source = $2, icon_version = $3 WHERE id = $1`, id, change)
}

func (r *PGRepo) UpdateLogo(ctx context.Context, id int64, night bool, change BrandingChange) error {
	if night {
		return r.exec(ctx, `UPDATE realms SET night_logo_source = $2, night_logo_version = $3 WHERE id = $1`, id, change)
	}
	return r.exec(ctx, `UPDATE realms SET logo_source = $2, logo_version = $3 WHERE id = $1`, id, change)
}

func (r *PGRepo) exec(ctx context.Context, query string, id int64, change BrandingChange) error {
	res, err := r.DB.ExecContext(ctx, query, id, change.Source, change.Version)
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
