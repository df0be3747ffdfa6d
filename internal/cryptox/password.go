package cryptox

import "golang.org/x/crypto/bcrypt"

// PasswordHash returns the bcrypt hash of plain at the given cost.
func PasswordHash(plain []byte, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword(plain, cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func PasswordVerify(hash string, plain []byte) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), plain) == nil
}
