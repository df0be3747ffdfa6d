package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
	ErrRateLimited           = errors.New("rate limited")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status     int
	Kind       string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (%d): %s, retry in %s", e.Kind, e.Status, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

var kindErrors = map[string]error{
	"UserExists":                 common.ErrUserExists,
	"RequestedFromOtherIp":       common.ErrRequestedFromOtherIP,
	"TokenNotFound":              common.ErrTokenNotFound,
	"CantDecryptPassword":        common.ErrCantDecryptPassword,
	"PasswordTooLong":            common.ErrPasswordTooLong,
	"InvalidCredentials":         common.ErrInvalidCredentials,
	"TfaAlreadyVerified":         common.ErrTfaAlreadyVerified,
	"CantDecryptTfaSecret":       common.ErrCantDecryptTfaSecret,
	"WrongTfaCode":               common.ErrWrongTfaCode,
	"InvalidLoginToken":          common.ErrInvalidLoginToken,
	"LoginTokenUserNotFound":     common.ErrLoginTokenUserNotFound,
	"EncryptionConflictCheckTfa": common.ErrEncryptionConflictCheckTfa,
	"ErrorGeneratingKeyPair":     common.ErrKeyGeneration,
	"Unauthorized":               ErrUnauthorized,
	"RateLimited":                ErrRateLimited,
}

// Is lets callers match server error kinds with errors.Is against the
// common sentinels.
func (e *APIError) Is(target error) bool {
	want, ok := kindErrors[e.Kind]
	return ok && want == target
}
