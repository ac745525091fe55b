// Package sheets implements ports.Ledger by appending rows to a Google Sheets
// spreadsheet through the Sheets v4 REST API.
package sheets

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
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

const (
	// DefaultBaseURL is the Sheets API host.
	DefaultBaseURL = "https://sheets.googleapis.com"
	// Scope grants read and write access to spreadsheets.
	Scope = "https://www.googleapis.com/auth/spreadsheets"
)

// ErrNotConfigured is returned when the spreadsheet or credentials are missing.
var ErrNotConfigured = errors.New("sheets ledger not configured")

// Config selects the spreadsheet and the service account.
// Either ServiceEmail and PrivateKey, or CredentialsJSON, must be set.
type Config struct {
	SpreadsheetID  string `yaml:"id"`
	DonationsRange string `yaml:"range_donations"`
	MessagesRange  string `yaml:"range_messages"`

	ServiceEmail    string `yaml:"service_email"`
	PrivateKey      string `yaml:"private_key"`
	CredentialsJSON string `yaml:"credentials_json"`
}

// Ledger appends donation and transcript rows to two sheet ranges.
type Ledger struct {
	cfg     Config
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

type Option func(*Ledger)

// WithHTTPClient uses c as is, skipping service account authentication.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Ledger) {
		l.client = c
	}
}

// WithBaseURL points the ledger at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(l *Ledger) {
		l.baseURL = strings.TrimRight(u, "/")
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Sheets ledger. Unless WithHTTPClient is given, requests are
// authorized with the service account in cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Ledger, error) {
	if cfg.SpreadsheetID == "" || cfg.DonationsRange == "" || cfg.MessagesRange == "" {
		return nil, fmt.Errorf("%w: spreadsheet id and both ranges are required", ErrNotConfigured)
	}

	l := &Ledger{
		cfg:     cfg,
		baseURL: DefaultBaseURL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		client, err := authorizedClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		l.client = client
	}
	return l, nil
}

func authorizedClient(ctx context.Context, cfg Config) (*http.Client, error) {
	base := &http.Client{Timeout: 10 * time.Second}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	switch {
	case cfg.CredentialsJSON != "":
		creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.CredentialsJSON), Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials: %w", err)
		}
		return oauth2.NewClient(ctx, creds.TokenSource), nil
	case cfg.ServiceEmail != "" && cfg.PrivateKey != "":
		conf := &jwt.Config{
			Email:      cfg.ServiceEmail,
			PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
			Scopes:     []string{Scope},
			TokenURL:   google.JWTTokenURL,
		}
		return conf.Client(ctx), nil
	}
	return nil, fmt.Errorf("%w: service account email and private key are required", ErrNotConfigured)
}

// AppendDonation writes the record to the donations range.
func (l *Ledger) AppendDonation(ctx context.Context, record domain.DonationRecord) error {
	updated, err := l.append(ctx, l.cfg.DonationsRange, record.Row())
	if err != nil {
		return fmt.Errorf("failed to append donation record: %w", err)
	}
	l.logger.Debug("Donation appended", logging.RecordID(record.ID), slog.String("range", updated))
	return nil
}

// AppendMessage writes the transcript line to the messages range.
func (l *Ledger) AppendMessage(ctx context.Context, entry domain.MessageLog) error {
	if _, err := l.append(ctx, l.cfg.MessagesRange, entry.Row()); err != nil {
		return fmt.Errorf("failed to log message: %w", err)
	}
	return nil
}

// Check reads the first cell of the donations sheet.
func (l *Ledger) Check(ctx context.Context) error {
	sheet, _, _ := strings.Cut(l.cfg.DonationsRange, "!")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.valuesURL(sheet+"!A1:A1"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	_, err = l.do(req)
	return err
}

func (l *Ledger) valuesURL(rng string) string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s", l.baseURL, url.PathEscape(l.cfg.SpreadsheetID), url.PathEscape(rng))
}

func (l *Ledger) append(ctx context.Context, rng string, row []string) (string, error) {
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	body, err := json.Marshal(map[string]any{"values": [][]any{values}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal row: %w", err)
	}

	endpoint := l.valuesURL(rng) + ":append?valueInputOption=USER_ENTERED"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := l.do(req)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "updates.updatedRange").String(), nil
}

func (l *Ledger) do(req *http.Request) ([]byte, error) {
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Sheets API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("Sheets API error (status %d): %s", resp.StatusCode, msg)
	}
	return raw, nil
}
