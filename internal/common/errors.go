// Package common defines shared constants and sentinel errors used across
// the clipher server, its transport, and the protocol client. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorConflict      = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Key lease errors.
	ErrUserExists           = errors.New("user already exists")
	ErrRequestedFromOtherIP = errors.New("encryption key already requested from another ip")
	ErrKeyGeneration        = errors.New("error generating key pair")
	ErrTokenNotFound        = errors.New("encryption key not found")

	// Password relay errors.
	ErrCantDecryptPassword = errors.New("can't decrypt password")
	ErrPasswordTooLong     = errors.New("password too long")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	// TFA errors.
	ErrTfaAlreadyVerified         = errors.New("tfa already verified")
	ErrCantDecryptTfaSecret       = errors.New("can't decrypt tfa secret")
	ErrWrongTfaCode               = errors.New("wrong tfa code")
	ErrInvalidLoginToken          = errors.New("invalid login token")
	ErrLoginTokenUserNotFound     = errors.New("user of login token not found")
	ErrEncryptionConflictCheckTfa = errors.New("stored password does not match login token")

	// Auth errors (invalid or malformed access token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
