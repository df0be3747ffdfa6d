package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/clipher/internal/logging"
	"github.com/dmitrijs2005/clipher/internal/server/config"
	"github.com/gorilla/mux"
)

// NewRouter mounts the API routes and wraps them with the request ID,
// access log and security header middlewares.
func NewRouter(h *Handler, log logging.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", health).Methods(http.MethodGet)

	r.HandleFunc("/api/key-lease", h.limited(config.LimitKeyLease, h.keyLease)).Methods(http.MethodPost)
	r.HandleFunc("/api/register", h.limited(config.LimitRegister, h.register)).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.limited(config.LimitLogin, h.login)).Methods(http.MethodPost)
	r.HandleFunc("/api/tfa-verify", h.limited(config.LimitTfaVerify, h.tfaVerify)).Methods(http.MethodPost)
	r.HandleFunc("/api/tfa-check", h.limited(config.LimitTfaCheck, h.tfaCheck)).Methods(http.MethodPost)

	r.HandleFunc("/api/session", h.authenticated(h.session)).Methods(http.MethodGet)
	r.HandleFunc("/api/logout", h.authenticated(h.logout)).Methods(http.MethodPost)

	return requestIDMiddleware(accessLogMiddleware(log)(securityHeadersMiddleware(r)))
}
