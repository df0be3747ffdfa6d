package common

// AccessTokenHeaderName is the HTTP header carrying the access token on
// authenticated requests, in the form "Bearer <token>".
const AccessTokenHeaderName = "Authorization"

// RequestIDHeaderName is set on every response and echoed from requests.
const RequestIDHeaderName = "X-Request-Id"

// Field length limits shared by the server schema and the client.
const (
	MaxUserNameLength = 32
	MaxPasswordLength = 128
	MaxOtpLength      = 6
)
