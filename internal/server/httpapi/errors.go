package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/server/ratelimit"
	"github.com/dmitrijs2005/clipher/internal/server/validate"
)

// Error kinds returned to clients in the errorKind field.
const (
	KindUserExists                 = "UserExists"
	KindRequestedFromOtherIP       = "RequestedFromOtherIp"
	KindTokenNotFound              = "TokenNotFound"
	KindCantDecryptPassword        = "CantDecryptPassword"
	KindPasswordTooLong            = "PasswordTooLong"
	KindInvalidCredentials         = "InvalidCredentials"
	KindTfaAlreadyVerified         = "TfaAlreadyVerified"
	KindCantDecryptTfaSecret       = "CantDecryptTfaSecret"
	KindWrongTfaCode               = "WrongTfaCode"
	KindInvalidLoginToken          = "InvalidLoginToken"
	KindLoginTokenUserNotFound     = "LoginTokenUserNotFound"
	KindEncryptionConflictCheckTfa = "EncryptionConflictCheckTfa"
	KindRateLimited                = "RateLimited"
	KindInvalidBody                = "InvalidBody"
	KindFieldsNotAvailable         = "FieldsNotAvailable"
	KindInvalidBodyLength          = "InvalidBodyLength"
	KindInvalidFieldType           = "InvalidFieldType"
	KindSocketClosed               = "SocketClosed"
	KindMethodNotAllowed           = "MethodNotAllowed"
	KindNotFound                   = "NotFound"
	KindLimiterTypeNotFound        = "LimiterTypeNotFound"
	KindErrorGeneratingKeyPair     = "ErrorGeneratingKeyPair"
	KindUnauthorized               = "Unauthorized"
	KindInternal                   = "Internal"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`

	// Set only on 429.
	RetryAfter int64 `json:"retryAfter,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Reset      int64 `json:"reset,omitempty"`
}

type errorKind struct {
	kind    string
	status  int
	message string
}

var errorKinds = []struct {
	err error
	errorKind
}{
	{common.ErrUserExists, errorKind{KindUserExists, http.StatusConflict, "user already exists"}},
	{common.ErrRequestedFromOtherIP, errorKind{KindRequestedFromOtherIP, http.StatusForbidden, "encryption key was requested from another ip"}},
	{common.ErrTokenNotFound, errorKind{KindTokenNotFound, http.StatusNotFound, "no valid encryption key for this user"}},
	{common.ErrCantDecryptPassword, errorKind{KindCantDecryptPassword, http.StatusBadRequest, "can't decrypt password"}},
	{common.ErrPasswordTooLong, errorKind{KindPasswordTooLong, http.StatusBadRequest, "password too long"}},
	{common.ErrInvalidCredentials, errorKind{KindInvalidCredentials, http.StatusUnauthorized, "invalid username or password"}},
	{common.ErrTfaAlreadyVerified, errorKind{KindTfaAlreadyVerified, http.StatusConflict, "tfa already verified"}},
	{common.ErrCantDecryptTfaSecret, errorKind{KindCantDecryptTfaSecret, http.StatusInternalServerError, "can't decrypt tfa secret"}},
	{common.ErrWrongTfaCode, errorKind{KindWrongTfaCode, http.StatusUnauthorized, "wrong tfa code"}},
	{common.ErrInvalidLoginToken, errorKind{KindInvalidLoginToken, http.StatusUnauthorized, "invalid or expired login token"}},
	{common.ErrLoginTokenUserNotFound, errorKind{KindLoginTokenUserNotFound, http.StatusNotFound, "user of login token not found"}},
	{common.ErrEncryptionConflictCheckTfa, errorKind{KindEncryptionConflictCheckTfa, http.StatusConflict, "credentials changed since login"}},
	{common.ErrKeyGeneration, errorKind{KindErrorGeneratingKeyPair, http.StatusInternalServerError, "error generating key pair"}},
	{common.ErrorUnauthorized, errorKind{KindUnauthorized, http.StatusUnauthorized, "unauthorized"}},
	{ratelimit.ErrUnknownCategory, errorKind{KindLimiterTypeNotFound, http.StatusInternalServerError, "rate limiter not configured"}},
	{ratelimit.ErrMissingIP, errorKind{KindInternal, http.StatusInternalServerError, "internal error"}},
	{context.Canceled, errorKind{KindSocketClosed, http.StatusBadRequest, "connection closed"}},
	{context.DeadlineExceeded, errorKind{KindSocketClosed, http.StatusBadRequest, "connection closed"}},
}

var internalKind = errorKind{KindInternal, http.StatusInternalServerError, "internal error"}

// classify maps err onto the client-facing error table. Unknown errors
// become Internal.
func classify(err error) errorKind {
	var verr *validate.Error
	if errors.As(err, &verr) {
		switch verr.Category() {
		case validate.CategoryMissing:
			return errorKind{KindFieldsNotAvailable, http.StatusBadRequest, verr.Error()}
		case validate.CategoryLength:
			return errorKind{KindInvalidBodyLength, http.StatusBadRequest, verr.Error()}
		default:
			return errorKind{KindInvalidFieldType, http.StatusBadRequest, verr.Error()}
		}
	}

	var berr *bodyError
	if errors.As(err, &berr) {
		return berr.errorKind
	}

	for _, e := range errorKinds {
		if errors.Is(err, e.err) {
			return e.errorKind
		}
	}
	return internalKind
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeKind(w http.ResponseWriter, k errorKind) {
	writeJSON(w, k.status, ErrorResponse{ErrorKind: k.kind, Message: k.message})
}

// setRateLimitHeaders describes the bucket state of res.
func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func writeRateLimited(w http.ResponseWriter, res ratelimit.Result) {
	retry := int64((res.RetryAfter + time.Second - 1) / time.Second)
	if retry < 1 {
		retry = 1
	}

	setRateLimitHeaders(w, res)
	w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))

	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		ErrorKind:  KindRateLimited,
		Message:    "too many requests",
		RetryAfter: retry,
		Limit:      res.Limit,
		Reset:      res.ResetAt.Unix(),
	})
}
