// Package api is the typed REST client for the book-sharing backend.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/auth"
	"github.com/landonvance1/BookSharingApp/pkg/code"
	apperrors "github.com/landonvance1/BookSharingApp/pkg/errors"
	"github.com/landonvance1/BookSharingApp/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config controls the REST client.
type Config struct {
	// BaseURL backend root, e.g. https://api.example.com
	BaseURL string
	// Timeout per-request deadline
	Timeout time.Duration
	// ReadRetries extra attempts for read requests; mutations never retry
	ReadRetries int
	// RetryBackoff pause before a read retry
	RetryBackoff time.Duration
	// TraceHeader request trace ID header name
	TraceHeader string
}

const (
	DefaultTimeout      = 15 * time.Second
	DefaultReadRetries  = 1
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultTraceHeader  = "X-Trace-ID"
)

// Client wraps http.Client with auth, tracing and error mapping.
type Client struct {
	http   *http.Client
	config Config
	creds  auth.Store
	logger *zap.Logger
}

func NewClient(cfg Config, creds auth.Store, lg *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.TraceHeader == "" {
		cfg.TraceHeader = DefaultTraceHeader
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		creds:  creds,
		logger: lg,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// get performs a read request with the configured retry budget.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.config.ReadRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return code.ErrorNetwork.WithDetails(ctx.Err().Error())
			case <-time.After(c.config.RetryBackoff):
			}
			c.logger.Debug("api read retry",
				zap.String(logger.FieldMethod, http.MethodGet),
				zap.String("path", path),
				zap.Int(logger.FieldAttempt, attempt))
		}
		lastErr = c.do(ctx, http.MethodGet, path, nil, out)
		if lastErr == nil {
			return nil
		}
		// retry only transport-level failures, never server verdicts
		if !code.ErrorNetwork.Is(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// mutate performs a write request. Never retried, to avoid double-apply.
func (c *Client) mutate(ctx context.Context, method, path string, body any, out any) error {
	return c.do(ctx, method, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body failed")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request failed")
	}

	traceID := uuid.New().String()
	req.Header.Set(c.config.TraceHeader, traceID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.creds.Token()
	if err != nil {
		return errors.Wrap(err, "read credential failed")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			zap.String(logger.FieldMethod, method),
			zap.String("path", path),
			zap.String(logger.FieldTraceID, traceID),
			zap.Error(err))
		return apperrors.NewAppError(code.ErrorNetwork.WithDetails(err.Error()), err).WithTraceID(traceID)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		zap.String(logger.FieldMethod, method),
		zap.String("path", path),
		zap.Int(logger.FieldStatus, resp.StatusCode),
		zap.String(logger.FieldTraceID, traceID),
		zap.Duration(logger.FieldDuration, time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		return apperrors.NewAppError(c.mapStatus(resp), nil).WithTraceID(traceID)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return code.ErrorNetwork.WithDetails(err.Error())
	}
	if len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return code.ErrorNetwork.WithDetails(fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// mapStatus translates HTTP verdicts into the registered error taxonomy.
func (c *Client) mapStatus(resp *http.Response) *code.Code {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := fmt.Sprintf("%s %s: %s", resp.Request.Method, resp.Request.URL.Path, resp.Status)
	if len(body) > 0 {
		detail = detail + " " + string(body)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return code.ErrorUnauthorized.WithDetails(detail)
	case http.StatusNotFound:
		return code.ErrorNotFound.WithDetails(detail)
	case http.StatusConflict:
		return code.ErrorConflict.WithDetails(detail)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return code.ErrorInvalidParams.WithDetails(detail)
	default:
		return code.ErrorNetwork.WithDetails(detail)
	}
}
