package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// KeyPair is a PEM-encoded RSA key pair. PublicPEM is PKIX, PrivatePEM PKCS#1.
type KeyPair struct {
	PublicPEM  string
	PrivatePEM string
}

func GenerateKeyPair(bits int) (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	return &KeyPair{
		PublicPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})),
		PrivatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})),
	}, nil
}

// AsymmetricEncrypt encrypts plain with RSA-OAEP (SHA-256) under the PEM
// public key and returns the ciphertext hex-encoded.
func AsymmetricEncrypt(plain []byte, publicPEM string) (string, error) {
	pub, err := parsePublicKey(publicPEM)
	if err != nil {
		return "", err
	}

	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plain, nil)
	if err != nil {
		return "", fmt.Errorf("rsa encrypt: %w", err)
	}
	return hex.EncodeToString(ct), nil
}

// AsymmetricDecrypt reverses AsymmetricEncrypt. Every failure is reported
// as ErrDecrypt.
func AsymmetricDecrypt(cipherHex string, privatePEM string) ([]byte, error) {
	priv, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, ErrDecrypt
	}

	ct, err := hex.DecodeString(cipherHex)
	if err != nil {
		return nil, ErrDecrypt
	}

	plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func parsePublicKey(publicPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil {
		return nil, ErrInvalidKey
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, ErrInvalidKey
	}

	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidKey
	}
	return pub, nil
}

func parsePrivateKey(privatePEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, ErrInvalidKey
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return key, nil
}
