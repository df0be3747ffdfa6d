// Package leases declares the repository contract for per-username RSA key
// leases handed out before registration.
package leases

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clipher/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userName string) (*models.Lease, error)
	// Add stores lease unless the username already holds a lease that is
	// still valid at now. In that case the existing lease is returned when
	// it was issued to the same IP, and common.ErrorConflict otherwise.
	Add(ctx context.Context, lease *models.Lease, now time.Time) (*models.Lease, error)
	Remove(ctx context.Context, userName string) (bool, error)
	Exists(ctx context.Context, userName string) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Lease, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
