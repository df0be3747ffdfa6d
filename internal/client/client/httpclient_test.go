package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_RequestShape(t *testing.T) {
	var gotPath, gotAuth, gotReqID string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get(common.AccessTokenHeaderName)
		gotReqID = r.Header.Get(common.RequestIDHeaderName)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"loginToken":"lt","expiresAt":"2026-05-04T12:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	c.DeviceID = "0123456789abcdef"

	lt, err := c.Login(context.Background(), "alice", "abcd")
	require.NoError(t, err)
	assert.Equal(t, "lt", lt.LoginToken)
	assert.Equal(t, "/api/login", gotPath)
	assert.Empty(t, gotAuth)
	assert.True(t, strings.HasPrefix(gotReqID, "01234567-"))
	assert.Equal(t, map[string]string{"username": "alice", "encryptedPasswordHex": "abcd"}, gotBody)

	require.NoError(t, c.Logout(context.Background(), "tok"))
	assert.Equal(t, "/api/logout", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		header  map[string]string
		wantIs  error
		wantErr string
	}{
		{
			name:   "wrong code",
			status: http.StatusUnauthorized,
			body:   `{"errorKind":"WrongTfaCode","message":"wrong tfa code"}`,
			wantIs: common.ErrWrongTfaCode,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"errorKind":"RateLimited","message":"too many requests","retryAfter":12}`,
			header: map[string]string{"Retry-After": "7"},
			wantIs: ErrRateLimited,
		},
		{
			name:   "bare 502",
			status: http.StatusBadGateway,
			body:   ``,
			wantIs: ErrUnavailable,
		},
		{
			name:    "non json error",
			status:  http.StatusBadRequest,
			body:    `<html>`,
			wantErr: "Unknown (400)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewHTTPClient(srv.URL, time.Second).VerifyTfa(context.Background(), "a", "b", "123456")
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestHTTPClient_RetryAfterHeaderWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errorKind":"RateLimited","message":"slow down","retryAfter":12}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).KeyLease(context.Background(), "a")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
}

func TestNewHTTPClient_AddsScheme(t *testing.T) {
	c := NewHTTPClient("127.0.0.1:8080/", time.Second)
	assert.Equal(t, "http://127.0.0.1:8080", c.baseURL)
}
