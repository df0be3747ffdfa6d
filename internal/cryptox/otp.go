package cryptox

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var otpValidateOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// OtpGenerateSecret creates a new base32 TOTP secret for account.
func OtpGenerateSecret(issuer, account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Digits:      otpValidateOpts.Digits,
		Algorithm:   otpValidateOpts.Algorithm,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// OtpCode returns the 6-digit code for secret at t.
func OtpCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, otpValidateOpts)
}

// OtpVerify reports whether code matches secret at t, allowing one period
// of clock skew either way.
func OtpVerify(secret, code string, t time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, t, otpValidateOpts)
	return err == nil && ok
}
