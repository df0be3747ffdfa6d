package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/clipher/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the length of the Argon2id salt stored with each secret.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce length.
	NonceSize = 12
)

// DeriveKey stretches a password into a 32-byte AES-256 key with Argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewSaltAndNonce returns fresh random salt and nonce for SymmetricEncrypt.
func NewSaltAndNonce() (salt, nonce []byte) {
	return common.GenerateRandByteArray(SaltSize), common.GenerateRandByteArray(NonceSize)
}

// SymmetricEncrypt seals plain with AES-256-GCM under a key derived from
// password and salt, using iv as the nonce.
func SymmetricEncrypt(plain, password, salt, iv []byte) ([]byte, error) {
	aead, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes", aead.NonceSize())
	}
	return aead.Seal(nil, iv, plain, nil), nil
}

// SymmetricDecrypt opens a SymmetricEncrypt ciphertext. A wrong password
// or tampered ciphertext yields ErrDecrypt.
func SymmetricDecrypt(ciphertext, password, salt, iv []byte) ([]byte, error) {
	aead, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, ErrDecrypt
	}

	plain, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
