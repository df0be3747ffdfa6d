// Package accesstokens declares the repository contract for issued session
// tokens. A token is valid only while its row exists and has not expired,
// which makes logout a delete.
package accesstokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clipher/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, token string) (*models.AccessToken, error)
	Add(ctx context.Context, token *models.AccessToken) error
	Remove(ctx context.Context, token string) (bool, error)
	Exists(ctx context.Context, token string) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.AccessToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
