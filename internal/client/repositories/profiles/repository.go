// Package profiles stores what the client must remember between runs: the
// account public key handed out at registration, a per-installation device
// id and the current access token.
package profiles

import (
	"context"
	"time"
)

type Profile struct {
	UserName        string
	PublicKey       string
	DeviceID        string
	AccessToken     string
	AccessExpiresAt time.Time
	UpdatedAt       time.Time
}

type Repository interface {
	// Get returns common.ErrorNotFound for an unknown user.
	Get(ctx context.Context, userName string) (*Profile, error)
	// Latest returns the most recently updated profile.
	Latest(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	SetAccessToken(ctx context.Context, userName, token string, expiresAt time.Time) error
	Delete(ctx context.Context, userName string) error
}
