package client

import (
	"context"
	"time"
)

// Client is the protocol surface of the clipher server.
type Client interface {
	Ping(ctx context.Context) error
	KeyLease(ctx context.Context, username string) (*KeyLease, error)
	Register(ctx context.Context, username, encryptedPasswordHex string) (*Registration, error)
	Login(ctx context.Context, username, encryptedPasswordHex string) (*LoginToken, error)
	VerifyTfa(ctx context.Context, username, encryptedPasswordHex, code string) error
	CheckTfa(ctx context.Context, loginToken, otp string) (*AccessToken, error)
	Session(ctx context.Context, accessToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
}

type KeyLease struct {
	PublicKey string    `json:"publicKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Registration struct {
	EncryptedTfaSecret string `json:"encryptedTfaSecret"`
	TfaIV              string `json:"tfaIv"`
	TfaSalt            string `json:"tfaSalt"`
	PublicKey          string `json:"publicKey"`
}

type LoginToken struct {
	LoginToken string    `json:"loginToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type AccessToken struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
