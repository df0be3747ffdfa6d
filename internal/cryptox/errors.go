// Package cryptox holds the crypto capabilities of the credential server:
// RSA key leasing, password-keyed AES-GCM for TFA secrets, bcrypt password
// hashing, TOTP and opaque random tokens.
package cryptox

import "errors"

var (
	// ErrDecrypt is returned for any failed decryption: bad encoding, wrong
	// key or tampered ciphertext.
	ErrDecrypt = errors.New("decryption failed")
	// ErrInvalidKey is returned when a PEM block cannot be parsed as the
	// expected key type.
	ErrInvalidKey = errors.New("invalid key")
)
