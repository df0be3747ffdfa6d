package leases

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

// PostgresRepository stores leases in the encryption_keys table.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leaseColumns = `username, public_key, private_key, ip, expires_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLease(s scanner) (*models.Lease, error) {
	l := &models.Lease{}
	if err := s.Scan(&l.UserName, &l.PublicKey, &l.PrivateKey, &l.IP, &l.ExpiresAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userName string) (*models.Lease, error) {
	query :=
		`SELECT ` + leaseColumns + `
		 FROM encryption_keys
		 WHERE username = $1
		 `

	l, err := scanLease(r.db.QueryRowContext(ctx, query, userName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

// Add upserts the lease, replacing only a row that has already expired.
// When the upsert is a no-op the live row decides the outcome.
func (r *PostgresRepository) Add(ctx context.Context, lease *models.Lease, now time.Time) (*models.Lease, error) {
	query :=
		`INSERT INTO encryption_keys (` + leaseColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO UPDATE
		 SET public_key = EXCLUDED.public_key,
		     private_key = EXCLUDED.private_key,
		     ip = EXCLUDED.ip,
		     expires_at = EXCLUDED.expires_at,
		     created_at = EXCLUDED.created_at
		 WHERE encryption_keys.expires_at <= $7
		 RETURNING ` + leaseColumns + `
		 `

	stored, err := scanLease(r.db.QueryRowContext(ctx, query,
		lease.UserName, lease.PublicKey, lease.PrivateKey, lease.IP, lease.ExpiresAt, lease.CreatedAt, now))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	existing, err := r.Get(ctx, lease.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// removed between the upsert and the read; the caller may retry
			return nil, common.ErrorConflict
		}
		return nil, err
	}
	if existing.IP != lease.IP {
		return nil, common.ErrorConflict
	}
	return existing, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userName string) (bool, error) {
	query :=
		`DELETE FROM encryption_keys
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
		`SELECT EXISTS (SELECT 1 FROM encryption_keys WHERE username = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Lease, error) {
	query :=
		`SELECT ` + leaseColumns + `
		 FROM encryption_keys
		 WHERE expires_at <= $1
		 ORDER BY expires_at
		 `

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`DELETE FROM encryption_keys
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
