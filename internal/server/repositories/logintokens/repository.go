// Package logintokens declares the repository contract for the single-use
// tokens issued between a password login and the TFA check.
package logintokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clipher/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, token string) (*models.LoginToken, error)
	Add(ctx context.Context, token *models.LoginToken) error
	// Remove reports whether a row was deleted; consumers racing for the
	// same token see true exactly once.
	Remove(ctx context.Context, token string) (bool, error)
	Exists(ctx context.Context, token string) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.LoginToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
