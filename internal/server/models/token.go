package models

import "time"

// LoginToken bridges a successful password check and the TFA step. The
// password is kept exactly as the client sent it, still encrypted under
// the user's public key.
type LoginToken struct {
	Token                string
	UserName             string
	EncryptedPasswordHex string
	ExpiresAt            time.Time
}

func (t *LoginToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AccessToken is an issued session credential.
type AccessToken struct {
	Token     string
	UserName  string
	ExpiresAt time.Time
}

func (t *AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
