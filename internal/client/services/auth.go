// Package services contains application services for the clipher client.
// This file defines the authentication service: registration with TFA
// enrollment, TFA verification, two-step login and session housekeeping.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipher/internal/client/client"
	"github.com/dmitrijs2005/clipher/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/cryptox"
	"github.com/google/uuid"
)

// Enrollment is what a freshly registered user must add to an
// authenticator app.
type Enrollment struct {
	UserName  string
	TfaSecret string
}

// AuthService runs the client half of the credential-exchange protocol.
// Passwords never leave the process unencrypted: they are encrypted under
// the server-issued RSA public key right before each request.
type AuthService struct {
	client   client.Client
	profiles profiles.Repository
	now      func() time.Time
}

func NewAuthService(c client.Client, p profiles.Repository) *AuthService {
	return &AuthService{client: c, profiles: p, now: time.Now}
}

// Register leases a key, registers the account and stores its public key.
// The returned TFA secret is decrypted locally with password.
func (a *AuthService) Register(ctx context.Context, userName string, password []byte) (*Enrollment, error) {
	lease, err := a.client.KeyLease(ctx, userName)
	if err != nil {
		return nil, err
	}

	encrypted, err := cryptox.AsymmetricEncrypt(password, lease.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	reg, err := a.client.Register(ctx, userName, encrypted)
	if err != nil {
		return nil, err
	}

	secret, err := decryptTfaSecret(reg, password)
	if err != nil {
		return nil, err
	}

	deviceID := uuid.NewString()
	if latest, err := a.profiles.Latest(ctx); err == nil {
		deviceID = latest.DeviceID
	}

	err = a.profiles.Save(ctx, &profiles.Profile{
		UserName:  userName,
		PublicKey: reg.PublicKey,
		DeviceID:  deviceID,
		UpdatedAt: a.now(),
	})
	if err != nil {
		return nil, err
	}

	return &Enrollment{UserName: userName, TfaSecret: secret}, nil
}

// VerifyTfa confirms the authenticator app once after registration.
func (a *AuthService) VerifyTfa(ctx context.Context, userName string, password []byte, code string) error {
	encrypted, err := a.encryptFor(ctx, userName, password)
	if err != nil {
		return err
	}
	return a.client.VerifyTfa(ctx, userName, encrypted, code)
}

// Login performs the password step and returns the login token to be
// upgraded by CheckTfa.
func (a *AuthService) Login(ctx context.Context, userName string, password []byte) (*client.LoginToken, error) {
	encrypted, err := a.encryptFor(ctx, userName, password)
	if err != nil {
		return nil, err
	}
	return a.client.Login(ctx, userName, encrypted)
}

// CheckTfa upgrades loginToken with a one-time code and stores the
// resulting access token in the user's profile.
func (a *AuthService) CheckTfa(ctx context.Context, userName, loginToken, code string) (*client.AccessToken, error) {
	at, err := a.client.CheckTfa(ctx, loginToken, code)
	if err != nil {
		return nil, err
	}

	if err := a.profiles.SetAccessToken(ctx, userName, at.AccessToken, at.ExpiresAt); err != nil {
		return nil, err
	}
	return at, nil
}

// WhoAmI asks the server who the stored access token belongs to.
func (a *AuthService) WhoAmI(ctx context.Context) (string, error) {
	p, err := a.current(ctx)
	if err != nil {
		return "", err
	}
	return a.client.Session(ctx, p.AccessToken)
}

// Logout revokes the stored access token and forgets it locally. The local
// token is cleared even when the server already considers it invalid.
func (a *AuthService) Logout(ctx context.Context) error {
	p, err := a.current(ctx)
	if err != nil {
		return err
	}

	err = a.client.Logout(ctx, p.AccessToken)
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	return a.profiles.SetAccessToken(ctx, p.UserName, "", time.Time{})
}

// DeviceID returns the installation id, if any profile exists.
func (a *AuthService) DeviceID(ctx context.Context) string {
	p, err := a.profiles.Latest(ctx)
	if err != nil {
		return ""
	}
	return p.DeviceID
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *AuthService) current(ctx context.Context) (*profiles.Profile, error) {
	p, err := a.profiles.Latest(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, client.ErrLocalDataNotAvailable
		}
		return nil, err
	}
	if p.AccessToken == "" || !a.now().Before(p.AccessExpiresAt) {
		return nil, client.ErrUnauthorized
	}
	return p, nil
}

func (a *AuthService) encryptFor(ctx context.Context, userName string, password []byte) (string, error) {
	p, err := a.profiles.Get(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", client.ErrLocalDataNotAvailable
		}
		return "", err
	}

	encrypted, err := cryptox.AsymmetricEncrypt(password, p.PublicKey)
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}
	return encrypted, nil
}

func decryptTfaSecret(reg *client.Registration, password []byte) (string, error) {
	enc, err1 := hex.DecodeString(reg.EncryptedTfaSecret)
	iv, err2 := hex.DecodeString(reg.TfaIV)
	salt, err3 := hex.DecodeString(reg.TfaSalt)
	if err := errors.Join(err1, err2, err3); err != nil {
		return "", fmt.Errorf("malformed registration: %w", err)
	}

	secret, err := cryptox.SymmetricDecrypt(enc, password, salt, iv)
	if err != nil {
		return "", common.ErrCantDecryptTfaSecret
	}
	defer common.WipeByteArray(secret)
	return string(secret), nil
}
