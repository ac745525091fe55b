// Package sms implements ports.Gateway for the supported SMS providers.
package sms

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/donorline/pkg/ports"
)

// Platform identifiers accepted by New.
const (
	PlatformTwilio        = "twilio"
	PlatformMessageCollab = "messagecollab"
	PlatformConsole       = "console"
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnknownPlatform is returned by New for an unsupported platform identifier.
	ErrUnknownPlatform = errors.New("unknown sms platform")
	// ErrNotConfigured is returned when provider credentials are missing.
	ErrNotConfigured = errors.New("sms provider not configured")
)

// TwilioConfig holds the Twilio REST credentials.
// MessagingServiceSID wins over From when both are set.
type TwilioConfig struct {
	AccountSID          string `yaml:"account_sid"`
	AuthToken           string `yaml:"auth_token"`
	MessagingServiceSID string `yaml:"messaging_service_sid"`
	From                string `yaml:"phone_number"`
}

// MessageCollabConfig holds the MessageCollab credentials.
type MessageCollabConfig struct {
	AccountID string `yaml:"account_id"`
	From      string `yaml:"phone_number"`
	Token     string `yaml:"token"`
}

// Config groups the settings of every provider; only the selected one is used.
type Config struct {
	Twilio        TwilioConfig        `yaml:"twilio"`
	MessageCollab MessageCollabConfig `yaml:"messagecollab"`

	// Console receives messages for the console platform. Defaults to os.Stdout.
	Console io.Writer `yaml:"-"`
}

type options struct {
	client  *http.Client
	baseURL string
}

// Option configures an HTTP provider.
type Option func(*options)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithBaseURL points the provider at another host, e.g. an httptest server.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(url, "/")
	}
}

func newOptions(baseURL string, opts []Option) options {
	o := options{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the gateway for the given platform.
func New(platform string, cfg Config, opts ...Option) (ports.Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case PlatformTwilio:
		gw, err := NewTwilio(cfg.Twilio, opts...)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case PlatformMessageCollab:
		gw, err := NewMessageCollab(cfg.MessageCollab, opts...)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case PlatformConsole:
		w := cfg.Console
		if w == nil {
			w = os.Stdout
		}
		return NewConsole(w), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
}

func readBody(resp *http.Response, provider string) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
