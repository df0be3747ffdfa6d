package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/segmentio/ksuid"
)

// HTTPClient talks to the server's HTTP/JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	// DeviceID prefixes request ids so server logs can be correlated with
	// one installation.
	DeviceID string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *HTTPClient) KeyLease(ctx context.Context, username string) (*KeyLease, error) {
	var out KeyLease
	req := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPost, "/api/key-lease", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, encryptedPasswordHex string) (*Registration, error) {
	var out Registration
	req := map[string]string{"username": username, "encryptedPasswordHex": encryptedPasswordHex}
	if err := c.do(ctx, http.MethodPost, "/api/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, encryptedPasswordHex string) (*LoginToken, error) {
	var out LoginToken
	req := map[string]string{"username": username, "encryptedPasswordHex": encryptedPasswordHex}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) VerifyTfa(ctx context.Context, username, encryptedPasswordHex, code string) error {
	req := map[string]string{"username": username, "encryptedPassword": encryptedPasswordHex, "code": code}
	return c.do(ctx, http.MethodPost, "/api/tfa-verify", "", req, nil)
}

func (c *HTTPClient) CheckTfa(ctx context.Context, loginToken, otp string) (*AccessToken, error) {
	var out AccessToken
	req := map[string]string{"loginToken": loginToken, "otp": otp}
	if err := c.do(ctx, http.MethodPost, "/api/tfa-check", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Session(ctx context.Context, accessToken string) (string, error) {
	var out struct {
		UserName string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/session", accessToken, nil, &out); err != nil {
		return "", err
	}
	return out.UserName, nil
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/api/logout", accessToken, nil, nil)
}

func requestID(deviceID string) string {
	if len(deviceID) > 8 {
		deviceID = deviceID[:8]
	}
	return deviceID + "-" + ksuid.New().String()
}

type errorBody struct {
	ErrorKind  string `json:"errorKind"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter"`
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.DeviceID != "" {
		req.Header.Set(common.RequestIDHeaderName, requestID(c.DeviceID))
	}
	if accessToken != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb); err != nil && !errors.Is(err, io.EOF) {
		apiErr.Kind = "Unknown"
		apiErr.Message = resp.Status
		return apiErr
	}
	apiErr.Kind = eb.ErrorKind
	apiErr.Message = eb.Message

	if resp.StatusCode == http.StatusTooManyRequests {
		secs := eb.RetryAfter
		if h := resp.Header.Get("Retry-After"); h != "" {
			if n, err := strconv.ParseInt(h, 10, 64); err == nil {
				secs = n
			}
		}
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	if resp.StatusCode >= http.StatusInternalServerError && apiErr.Kind == "" {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return apiErr
}
