// Package users declares the repository contract for registered accounts.
// Accounts do not expire and are never swept.
package users

import (
	"context"

	"github.com/dmitrijs2005/clipher/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when the user does not exist.
	Get(ctx context.Context, userName string) (*models.User, error)
	// Add fails with common.ErrorAlreadyExists for a taken username.
	Add(ctx context.Context, user *models.User) error
	Remove(ctx context.Context, userName string) (bool, error)
	Exists(ctx context.Context, userName string) (bool, error)
	// SetTfaVerified flips the flag once; it reports false when the user
	// is missing or already verified.
	SetTfaVerified(ctx context.Context, userName string) (bool, error)
}
