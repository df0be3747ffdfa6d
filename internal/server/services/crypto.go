package services

import (
	"bytes"
	"context"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/cryptox"
	"github.com/dmitrijs2005/clipher/internal/workerpool"
)

// Crypto is the set of primitives the orchestrator needs. *cryptox.Suite
// implements it.
type Crypto interface {
	GenerateKeyPair() (*cryptox.KeyPair, error)
	AsymmetricDecrypt(cipherHex, privatePEM string) ([]byte, error)
	SymmetricEncrypt(plain, password, salt, iv []byte) ([]byte, error)
	SymmetricDecrypt(ciphertext, password, salt, iv []byte) ([]byte, error)
	PasswordHash(plain []byte) (string, error)
	PasswordVerify(hash string, plain []byte) bool
	OtpGenerateSecret(account string) (string, error)
	OtpVerify(secret, code string, t time.Time) bool
	SecureRandomToken() (string, error)
}

var _ Crypto = (*cryptox.Suite)(nil)

// runWithSecret runs fn on the pool with a private copy of secret, wiped
// when fn returns. The caller may wipe its own buffer as soon as this
// returns, even if ctx ended while fn was still running.
func runWithSecret[T any](ctx context.Context, pool *workerpool.Pool, secret []byte, fn func(secret []byte) (T, error)) (T, error) {
	own := bytes.Clone(secret)
	return workerpool.Do(ctx, pool, func() (T, error) {
		defer common.WipeByteArray(own)
		return fn(own)
	})
}
