package logintokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/dbx"
	"github.com/dmitrijs2005/clipher/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, token string) (*models.LoginToken, error) {
	query :=
		`SELECT token, username, encrypted_password, expires_at
		 FROM login_tokens
		 WHERE token = $1
		 `

	t := &models.LoginToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.UserName, &t.EncryptedPasswordHex, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Add(ctx context.Context, token *models.LoginToken) error {
	query :=
		`INSERT INTO login_tokens (token, username, encrypted_password, expires_at)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query, token.Token, token.UserName, token.EncryptedPasswordHex, token.ExpiresAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, token string) (bool, error) {
	query :=
		`DELETE FROM login_tokens
		 WHERE token = $1
		 `

	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, token string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM login_tokens WHERE token = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time) ([]models.LoginToken, error) {
	query :=
		`SELECT token, username, encrypted_password, expires_at
		 FROM login_tokens
		 WHERE expires_at <= $1
		 ORDER BY expires_at
		 `

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.LoginToken
	for rows.Next() {
		var t models.LoginToken
		if err := rows.Scan(&t.Token, &t.UserName, &t.EncryptedPasswordHex, &t.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`DELETE FROM login_tokens
		 WHERE expires_at <= $1
		 `

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
