// Package submit talks to the scouting backend's JSON API.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/scout"
)

// ErrRejected is returned when the backend answers {"success": false}.
var ErrRejected = errors.New("backend rejected request")

// Error describes a failed call. StatusCode is zero when no response was
// received.
type Error struct {
	Op         string
	Match      int
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Match > 0 {
		fmt.Fprintf(&b, " match %d", e.Match)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Positions are the six driver-station scouting seats.
var Positions = []string{"red1", "red2", "red3", "blue1", "blue2", "blue3"}

// ValidPosition reports whether pos names a scouting seat.
func ValidPosition(pos string) bool {
	for _, p := range Positions {
		if p == pos {
			return true
		}
	}
	return false
}

// OnLeft reports whether the robot scouted from pos starts on the left
// side of the field. redOnLeft gives the field orientation for the event.
func OnLeft(pos string, redOnLeft bool) bool {
	return strings.HasPrefix(pos, "red") == redOnLeft
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// InitialInterval is the first retry delay; later delays grow
	// exponentially.
	InitialInterval time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Client is an HTTP client for the backend. It implements
// scout.Submitter.
type Client struct {
	base       *url.URL
	http       *http.Client
	maxRetries int
	interval   time.Duration
	logger     *zap.Logger
}

var _ scout.Submitter = (*Client)(nil)

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: unsupported scheme", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	interval := cfg.InitialInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		base:       base,
		http:       httpClient,
		maxRetries: maxRetries,
		interval:   interval,
		logger:     logger,
	}, nil
}

type response struct {
	Success bool `json:"success"`
}

// SubmitMatch posts the match log to /api/match_event/{match}.
func (c *Client) SubmitMatch(ctx context.Context, match int, payload scout.Payload) error {
	if payload.Events == nil {
		payload.Events = []scout.Event{}
	}
	return c.post(ctx, "submit", match, "/api/match_event/"+strconv.Itoa(match), payload)
}

// ClaimPosition claims a scouting seat for the logged-in user.
func (c *Client) ClaimPosition(ctx context.Context, pos string) error {
	if !ValidPosition(pos) {
		return fmt.Errorf("unknown position %q", pos)
	}
	return c.post(ctx, "claim position", 0, "/api/position_claim/"+pos, nil)
}

// RemovePosition frees a scouting seat.
func (c *Client) RemovePosition(ctx context.Context, pos string) error {
	if !ValidPosition(pos) {
		return fmt.Errorf("unknown position %q", pos)
	}
	return c.post(ctx, "remove position", 0, "/api/position_remove/"+pos, nil)
}

// ToggleSuperscout promotes or demotes a user.
func (c *Client) ToggleSuperscout(ctx context.Context, userID int) error {
	return c.post(ctx, "toggle superscout", 0, "/api/superscout/"+strconv.Itoa(userID), nil)
}

// Predict records a winner prediction for match. Color is "red" or
// "blue".
func (c *Client) Predict(ctx context.Context, match int, color string) error {
	if color != "red" && color != "blue" {
		return fmt.Errorf("unknown alliance color %q", color)
	}
	body := map[string]string{"color": color}
	return c.post(ctx, "predict", match, "/api/predict/"+strconv.Itoa(match), body)
}

// post sends body as JSON, retrying transport errors and 5xx responses.
func (c *Client) post(ctx context.Context, op string, match int, path string, body any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Match: match, Err: fmt.Errorf("encode body: %w", err)}
		}
	}
	endpoint := c.base.String() + path

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.interval
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := c.do(ctx, op, match, endpoint, data)
		if err == nil {
			return nil
		}
		var callErr *Error
		if errors.As(err, &callErr) && callErr.StatusCode > 0 && callErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrRejected) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("backend call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, retry, notify); err != nil {
		return err
	}
	c.logger.Info("backend call succeeded",
		zap.String("op", op),
		zap.Int("match", match),
		zap.Int("attempts", attempt),
	)
	return nil
}

func (c *Client) do(ctx context.Context, op string, match int, endpoint string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return &Error{Op: op, Match: match, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Match: match, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Op: op, Match: match, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Match: match, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &Error{Op: op, Match: match, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.logger.Debug("backend response", zap.String("op", op), zap.ByteString("body", raw))
	if !decoded.Success {
		return &Error{Op: op, Match: match, StatusCode: resp.StatusCode, Err: ErrRejected}
	}
	return nil
}
