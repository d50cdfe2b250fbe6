// Package api contains thin clients for the backend collaborators (auth,
// services, orders, payments, subscriptions). It owns transport, bearer
// injection and error mapping; workflow semantics live elsewhere.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/neointegratech/portal-client/pkg/errors"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
)

// TokenSource supplies the current bearer token. An empty string means
// the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Tokens supplies the bearer token for protected calls. Optional.
	Tokens TokenSource
	// OnAuthReject runs when a non-auth endpoint answers 401, i.e. the
	// token itself is no longer valid. It must not navigate; it only
	// invalidates session state.
	OnAuthReject func()
	Logger       *zap.Logger
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// Client is the shared HTTP transport for all collaborator APIs.
type Client struct {
	baseURL      string
	http         *http.Client
	tokens       TokenSource
	onAuthReject func()
	logger       *zap.Logger
}

// NewClient builds a Client from options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		http:         httpClient,
		tokens:       opts.Tokens,
		onAuthReject: opts.OnAuthReject,
		logger:       logger,
	}
}

// APIError is a structured (non-2xx) response from a collaborator.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// errorBody is the backend's structured error payload.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

func (c *Client) Auth() *AuthAPI                   { return &AuthAPI{c: c} }
func (c *Client) Services() *ServicesAPI           { return &ServicesAPI{c: c} }
func (c *Client) Orders() *OrdersAPI               { return &OrdersAPI{c: c} }
func (c *Client) Payments() *PaymentsAPI           { return &PaymentsAPI{c: c} }
func (c *Client) Subscriptions() *SubscriptionsAPI { return &SubscriptionsAPI{c: c} }

// do executes one request. authEndpoint marks login/register style calls:
// a 401 there means bad credentials and must not invalidate the session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, authEndpoint bool) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrInternal, "failed to prepare request", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrInternal, "failed to create request", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(headerAuthorization, "Bearer "+token)
		}
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrUnavailable, "cannot reach server", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrInternal, "failed to read response", err)
	}

	c.logger.Debug("api response",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		return c.asError(resp.StatusCode, respBody, authEndpoint)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperrors.NewAppError(apperrors.ErrInternal, "failed to parse response", err)
		}
	}

	return nil
}

func (c *Client) asError(status int, body []byte, authEndpoint bool) error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	detail := parsed.text()
	apiErr := &APIError{Status: status, Detail: detail}

	if status == http.StatusUnauthorized && !authEndpoint && c.onAuthReject != nil {
		c.onAuthReject()
	}

	message := detail
	if message == "" {
		message = http.StatusText(status)
	}

	return apperrors.NewAppError(apperrors.FromHTTPStatus(status), message, apiErr)
}
