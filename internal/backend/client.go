package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"cumbre/internal/config"
	apperrors "cumbre/internal/errors"
)

// Client talks to the platform REST API. Every response is wrapped in the
// {success, data, message} envelope. 401, 403 and 404 map to the matching
// typed errors; any other failure is reported as *errors.BackendError.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	logger      *zap.Logger
}

// retryBackoffs is the wait before each retry of an idempotent call; a ±20%
// jitter is added.
var retryBackoffs = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type request struct {
	op     string
	method string
	path   string
	token  string
	query  url.Values
	body   interface{}
}

// do sends req and decodes the envelope data into out. GET requests are
// retried on transport errors and 5xx answers, up to maxAttempts.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	attempts := 1
	if req.method == http.MethodGet {
		attempts = c.maxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.doOnce(ctx, req, out)
		if err == nil || attempt == attempts || !retryable(err) {
			return err
		}

		wait := retryBackoffs[min(attempt, len(retryBackoffs))-1]
		wait += time.Duration(float64(wait) * (rand.Float64()*0.4 - 0.2))
		c.logger.Warn("backend call failed, retrying",
			zap.String("op", req.op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
	return err
}

func retryable(err error) bool {
	be, ok := apperrors.IsBackendError(err)
	if !ok {
		return false
	}
	return be.StatusCode == 0 || be.StatusCode >= http.StatusInternalServerError
}

func (c *Client) doOnce(ctx context.Context, req request, out interface{}) error {
	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return apperrors.NewInternalError("encoding "+req.op+" request", err)
		}
		payload = bytes.NewReader(raw)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
	if err != nil {
		return apperrors.NewInternalError("building "+req.op+" request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("backend call failed", zap.String("op", req.op), zap.Error(err))
		return apperrors.NewBackendError(req.op, 0, "could not reach the booking service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewBackendError(req.op, resp.StatusCode, "could not read the booking service response", err)
	}

	c.logger.Debug("backend call",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 300 {
			return apperrors.NewBackendError(req.op, resp.StatusCode, http.StatusText(resp.StatusCode), nil)
		}
		return apperrors.NewBackendError(req.op, resp.StatusCode, "unexpected response from the booking service", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError(messageOr(env.Message, req.op+": not found"))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return apperrors.NewNotAuthenticatedError(messageOr(env.Message, "session expired, please log in again"))
	}
	if resp.StatusCode == http.StatusForbidden {
		return apperrors.NewForbiddenError(messageOr(env.Message, "you are not allowed to do that"))
	}
	if resp.StatusCode >= 300 || !env.Success {
		return apperrors.NewBackendError(req.op, resp.StatusCode, messageOr(env.Message, "the booking service rejected the request"), nil)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.NewBackendError(req.op, resp.StatusCode, "unexpected response from the booking service", err)
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

// flexFloat accepts JSON numbers and numeric strings; DECIMAL columns come
// back from the API as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

type flexInt int

func (i *flexInt) UnmarshalJSON(b []byte) error {
	var f flexFloat
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	*i = flexInt(f)
	return nil
}

// flexTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("parsing date %q", s)
}

func idPath(prefix string, id int, suffix string) string {
	return prefix + "/" + strconv.Itoa(id) + suffix
}
