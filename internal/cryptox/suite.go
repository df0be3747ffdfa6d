package cryptox

import "time"

// TokenSize is the number of random bytes in login tokens (64 hex chars).
const TokenSize = 32

// Suite binds the crypto parameters of a running server.
type Suite struct {
	RSABits    int
	BcryptCost int
	TfaIssuer  string
}

func NewSuite(rsaBits, bcryptCost int, tfaIssuer string) *Suite {
	return &Suite{RSABits: rsaBits, BcryptCost: bcryptCost, TfaIssuer: tfaIssuer}
}

func (s *Suite) GenerateKeyPair() (*KeyPair, error) {
	return GenerateKeyPair(s.RSABits)
}

func (s *Suite) AsymmetricDecrypt(cipherHex, privatePEM string) ([]byte, error) {
	return AsymmetricDecrypt(cipherHex, privatePEM)
}

func (s *Suite) SymmetricEncrypt(plain, password, salt, iv []byte) ([]byte, error) {
	return SymmetricEncrypt(plain, password, salt, iv)
}

func (s *Suite) SymmetricDecrypt(ciphertext, password, salt, iv []byte) ([]byte, error) {
	return SymmetricDecrypt(ciphertext, password, salt, iv)
}

func (s *Suite) PasswordHash(plain []byte) (string, error) {
	return PasswordHash(plain, s.BcryptCost)
}

func (s *Suite) PasswordVerify(hash string, plain []byte) bool {
	return PasswordVerify(hash, plain)
}

func (s *Suite) OtpGenerateSecret(account string) (string, error) {
	return OtpGenerateSecret(s.TfaIssuer, account)
}

func (s *Suite) OtpVerify(secret, code string, t time.Time) bool {
	return OtpVerify(secret, code, t)
}

func (s *Suite) SecureRandomToken() (string, error) {
	return SecureRandomToken(TokenSize)
}
