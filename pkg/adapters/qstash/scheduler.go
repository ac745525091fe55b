// Package qstash implements ports.Scheduler on top of Upstash QStash delayed messages.
package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the QStash API host.
const DefaultBaseURL = "https://qstash.upstash.io"

// ErrNotConfigured is returned when no token is set.
var ErrNotConfigured = errors.New("qstash token is required")

// Scheduler publishes delayed callbacks to QStash.
type Scheduler struct {
	token       string
	baseURL     string
	client      *http.Client
	development bool
	logger      *slog.Logger
}

type Option func(*Scheduler)

// WithBaseURL points the scheduler at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(s *Scheduler) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.client = c
		}
	}
}

// WithDevelopment skips every publish, as QStash cannot reach a developer machine.
func WithDevelopment(dev bool) Option {
	return func(s *Scheduler) {
		s.development = dev
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a QStash scheduler.
func New(token string, opts ...Option) (*Scheduler, error) {
	if token == "" {
		return nil, ErrNotConfigured
	}
	s := &Scheduler{
		token:   token,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Schedule publishes job.Payload as JSON to job.CallbackURL after job.Delay.
// Loopback callback URLs and development mode return ports.SkippedJobID
// without calling QStash.
func (s *Scheduler) Schedule(ctx context.Context, job domain.Job) (string, error) {
	if s.skip(job.CallbackURL) {
		s.logger.Debug("Skipping QStash scheduling", slog.String("url", job.CallbackURL))
		return ports.SkippedJobID, nil
	}

	body, err := json.Marshal(job.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := s.baseURL + "/v2/publish/" + job.CallbackURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Delay", fmt.Sprintf("%ds", int(job.Delay.Seconds())))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call QStash: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read QStash response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("QStash publish error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	id := gjson.GetBytes(raw, "messageId").String()
	if id == "" {
		return "", fmt.Errorf("QStash response has no messageId")
	}
	return id, nil
}

// Cancel deletes a pending message. A message that already ran or never
// existed reports false without error.
func (s *Scheduler) Cancel(ctx context.Context, id string) (bool, error) {
	if id == "" || id == ports.SkippedJobID {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/v2/messages/"+url.PathEscape(id), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call QStash: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, fmt.Errorf("QStash cancel error (status %d)", resp.StatusCode)
	}
	return true, nil
}

// Check lists signing keys to verify the token.
func (s *Scheduler) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v2/keys", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call QStash: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("QStash check error (status %d)", resp.StatusCode)
	}
	return nil
}

func (s *Scheduler) skip(callbackURL string) bool {
	if s.development {
		return true
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return true
	}
	host := u.Hostname()
	return host == "" || host == "localhost" || host == "127.0.0.1" || host == "::1"
}
