package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectProfile = `SELECT username, public_key, device_id, access_token, access_expires_at, updated_at FROM profiles`

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var expires, updated int64
	if err := row.Scan(&p.UserName, &p.PublicKey, &p.DeviceID, &p.AccessToken, &expires, &updated); err != nil {
		return nil, err
	}
	if expires != 0 {
		p.AccessExpiresAt = time.Unix(expires, 0).UTC()
	}
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return &p, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userName string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfile+` WHERE username = ?`, userName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile[%s]: %w", userName, err)
	}
	return p, nil
}

func (r *SQLiteRepository) Latest(ctx context.Context) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfile+` ORDER BY updated_at DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest profile: %w", err)
	}
	return p, nil
}

// Save inserts or replaces the profile. A new public key clears any stored
// access token.
func (r *SQLiteRepository) Save(ctx context.Context, p *Profile) error {
	var expires int64
	if !p.AccessExpiresAt.IsZero() {
		expires = p.AccessExpiresAt.Unix()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (username, public_key, device_id, access_token, access_expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			public_key = excluded.public_key,
			device_id = excluded.device_id,
			access_token = excluded.access_token,
			access_expires_at = excluded.access_expires_at,
			updated_at = excluded.updated_at
	`, p.UserName, p.PublicKey, p.DeviceID, p.AccessToken, expires, p.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save profile[%s]: %w", p.UserName, err)
	}
	return nil
}

func (r *SQLiteRepository) SetAccessToken(ctx context.Context, userName, token string, expiresAt time.Time) error {
	var expires int64
	if !expiresAt.IsZero() {
		expires = expiresAt.Unix()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET access_token = ?, access_expires_at = ?, updated_at = ? WHERE username = ?`,
		token, expires, time.Now().UnixNano(), userName)
	if err != nil {
		return fmt.Errorf("failed to set access token[%s]: %w", userName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set access token[%s]: %w", userName, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userName string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE username = ?`, userName)
	if err != nil {
		return fmt.Errorf("failed to delete profile[%s]: %w", userName, err)
	}
	return nil
}
