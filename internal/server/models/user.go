// Package models holds the records kept by the secret store.
package models

import "time"

// User is a registered account. The plaintext password and TFA secret are
// never stored; PrivateKey is kept so that a login can decrypt the password
// sent under PublicKey.
type User struct {
	UserName       string
	HashedPassword string
	PublicKey      string
	PrivateKey     string

	// EncryptedTfaSecret is AES-GCM under a key derived from the password
	// and TfaSalt, with TfaIV as nonce. All three are hex encoded.
	EncryptedTfaSecret string
	TfaIV              string
	TfaSalt            string
	TfaVerified        bool

	CreatedAt time.Time
}
