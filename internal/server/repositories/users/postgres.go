package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Get(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT username, hashed_password, public_key, private_key,
		        encrypted_tfa_secret, tfa_iv, tfa_salt, tfa_verified, created_at
		 FROM users
		 WHERE username = $1
		 `

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName).Scan(
		&u.UserName, &u.HashedPassword, &u.PublicKey, &u.PrivateKey,
		&u.EncryptedTfaSecret, &u.TfaIV, &u.TfaSalt, &u.TfaVerified, &u.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) Add(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (username, hashed_password, public_key, private_key,
		                    encrypted_tfa_secret, tfa_iv, tfa_salt, tfa_verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.UserName, user.HashedPassword, user.PublicKey, user.PrivateKey,
		user.EncryptedTfaSecret, user.TfaIV, user.TfaSalt, user.TfaVerified, user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userName string) (bool, error) {
	query :=
		`DELETE FROM users
		 WHERE username = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userName)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userName string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetTfaVerified(ctx context.Context, userName string) (bool, error) {
	query :=
		`UPDATE users SET tfa_verified = TRUE
		 WHERE username = $1 AND NOT tfa_verified
		 `

	res, err := r.db.ExecContext(ctx, query, userName)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
