// Package httpapi exposes the credential-exchange protocol over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/logging"
	"github.com/dmitrijs2005/clipher/internal/server/ratelimit"
	"github.com/dmitrijs2005/clipher/internal/server/services"
	"github.com/dmitrijs2005/clipher/internal/server/validate"
)

const maxBodySize = 16 << 10

// Credentials is the protocol surface served by the API.
type Credentials interface {
	RequestEncryptionKey(ctx context.Context, userName, ip string) (*services.KeyLease, error)
	Register(ctx context.Context, userName, encryptedPasswordHex string) (*services.Registration, error)
	Login(ctx context.Context, userName, encryptedPasswordHex string) (*services.LoginResult, error)
	VerifyTfa(ctx context.Context, userName, encryptedPasswordHex, code string) error
	CheckTfa(ctx context.Context, loginToken, otp string) (*services.AccessGrant, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
}

type RateLimiter interface {
	Consume(category, ip string) (ratelimit.Result, error)
}

type KeyLeaseRequest struct {
	UserName string `json:"username" validate:"required,max=32"`
}

type KeyLeaseResponse struct {
	PublicKey string    `json:"publicKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	UserName             string `json:"username" validate:"required,max=32"`
	EncryptedPasswordHex string `json:"encryptedPasswordHex" validate:"required,max=2048,hexadecimal"`
}

type RegisterResponse struct {
	EncryptedTfaSecret string `json:"encryptedTfaSecret"`
	TfaIV              string `json:"tfaIv"`
	TfaSalt            string `json:"tfaSalt"`
	PublicKey          string `json:"publicKey"`
}

type LoginRequest struct {
	UserName             string `json:"username" validate:"required,max=32"`
	EncryptedPasswordHex string `json:"encryptedPasswordHex" validate:"required,max=2048,hexadecimal"`
}

type LoginResponse struct {
	LoginToken string    `json:"loginToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type TfaVerifyRequest struct {
	UserName          string `json:"username" validate:"required,max=32"`
	EncryptedPassword string `json:"encryptedPassword" validate:"required,max=2048,hexadecimal"`
	Code              string `json:"code" validate:"required,max=6,numeric"`
}

type TfaCheckRequest struct {
	LoginToken string `json:"loginToken" validate:"required,max=64,hexadecimal"`
	Otp        string `json:"otp" validate:"required,max=6,numeric"`
}

type TfaCheckResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type SessionResponse struct {
	UserName string `json:"username"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	creds   Credentials
	limiter RateLimiter
	log     logging.Logger
}

func NewHandler(creds Credentials, limiter RateLimiter, log logging.Logger) *Handler {
	return &Handler{creds: creds, limiter: limiter, log: log.With("module", "httpapi")}
}

func (h *Handler) keyLease(w http.ResponseWriter, r *http.Request, ip string) {
	req, err := decode[KeyLeaseRequest](w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	lease, err := h.creds.RequestEncryptionKey(r.Context(), req.UserName, ip)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, KeyLeaseResponse{PublicKey: lease.PublicKey, ExpiresAt: lease.ExpiresAt})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, _ string) {
	req, err := decode[RegisterRequest](w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reg, err := h.creds.Register(r.Context(), req.UserName, req.EncryptedPasswordHex)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		EncryptedTfaSecret: reg.EncryptedTfaSecret,
		TfaIV:              reg.TfaIV,
		TfaSalt:            reg.TfaSalt,
		PublicKey:          reg.PublicKey,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, _ string) {
	req, err := decode[LoginRequest](w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.creds.Login(r.Context(), req.UserName, req.EncryptedPasswordHex)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{LoginToken: res.LoginToken, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) tfaVerify(w http.ResponseWriter, r *http.Request, _ string) {
	req, err := decode[TfaVerifyRequest](w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.creds.VerifyTfa(r.Context(), req.UserName, req.EncryptedPassword, req.Code); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "tfa verified"})
}

func (h *Handler) tfaCheck(w http.ResponseWriter, r *http.Request, _ string) {
	req, err := decode[TfaCheckRequest](w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	grant, err := h.creds.CheckTfa(r.Context(), req.LoginToken, req.Otp)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TfaCheckResponse{AccessToken: grant.AccessToken, ExpiresAt: grant.ExpiresAt})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionResponse{UserName: userNameFromContext(r.Context())})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.creds.Logout(r.Context(), bearerToken(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeKind(w, errorKind{KindMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeKind(w, errorKind{KindNotFound, http.StatusNotFound, "not found"})
}

// limited consumes one point of category for the caller's IP before
// running next. Requests without a usable IP are refused.
func (h *Handler) limited(category string, next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			h.fail(w, r, ratelimit.ErrMissingIP)
			return
		}

		res, err := h.limiter.Consume(category, ip)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !res.Allowed {
			h.log.Warn(r.Context(), "rate limited", "category", category, "ip", ip, "request_id", RequestIDFromContext(r.Context()))
			writeRateLimited(w, res)
			return
		}
		setRateLimitHeaders(w, res)

		next(w, r, ip)
	}
}

// authenticated resolves the bearer token before running next.
func (h *Handler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.fail(w, r, common.ErrorUnauthorized)
			return
		}

		userName, err := h.creds.Authenticate(r.Context(), token)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userNameKey, userName)))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	k := classify(err)
	if k.status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "kind", k.kind, "error", err, "request_id", RequestIDFromContext(r.Context()))
	} else {
		h.log.Debug(r.Context(), "request rejected", "path", r.URL.Path, "kind", k.kind, "request_id", RequestIDFromContext(r.Context()))
	}
	writeKind(w, k)
}

// bodyError is a request body that could not be decoded.
type bodyError struct {
	errorKind
	err error
}

func (e *bodyError) Error() string { return e.message + ": " + e.err.Error() }
func (e *bodyError) Unwrap() error { return e.err }

// decode reads one JSON object into T and validates it.
func decode[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var req T

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			return nil, &bodyError{errorKind{KindInvalidBodyLength, http.StatusBadRequest, "request body too large"}, err}
		case errors.As(err, &typeErr):
			return nil, &bodyError{errorKind{KindInvalidFieldType, http.StatusBadRequest, "field " + typeErr.Field + " has the wrong type"}, err}
		default:
			return nil, &bodyError{errorKind{KindInvalidBody, http.StatusBadRequest, "request body is not a valid json object"}, err}
		}
	}

	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// clientIP is the peer address of the connection. Forwarding headers are
// not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return host
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get(common.AccessTokenHeaderName), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
