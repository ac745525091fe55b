// Package config loads donorline settings from an optional YAML file and
// the process environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/donorline/pkg/adapters/sheets"
	"github.com/aretw0/donorline/pkg/adapters/sms"
	"gopkg.in/yaml.v3"
)

// ErrMissingConfig is returned by Validate, wrapped with the missing keys.
var ErrMissingConfig = errors.New("missing required configuration")

// Driver names.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverQStash   = "qstash"
	DriverTimer    = "timer"
	DriverNone     = "none"
	DriverSheets   = "sheets"
	DriverDynamoDB = "dynamodb"
)

type Config struct {
	Env     string `yaml:"env"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`

	Log       LogConfig       `yaml:"log"`
	Session   SessionConfig   `yaml:"session"`
	SMS       SMSConfig       `yaml:"sms"`
	Store     StoreConfig     `yaml:"store"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type SMSConfig struct {
	Platform        string `yaml:"platform"`
	VerifySignature bool   `yaml:"verify_signature"`
	sms.Config      `yaml:",inline"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver"`
	RedisURL      string `yaml:"redis_url"`
	EncryptionKey string `yaml:"encryption_key"`
}

type SchedulerConfig struct {
	Driver      string `yaml:"driver"`
	QStashToken string `yaml:"qstash_token"`
	QStashURL   string `yaml:"qstash_url"`
}

type LedgerConfig struct {
	Driver            string         `yaml:"driver"`
	RedactTranscripts bool           `yaml:"redact_transcripts"`
	Sheets            sheets.Config  `yaml:"sheets"`
	DynamoDB          DynamoDBConfig `yaml:"dynamodb"`
}

type DynamoDBConfig struct {
	Region         string `yaml:"region"`
	DonationsTable string `yaml:"donations_table"`
	MessagesTable  string `yaml:"messages_table"`
}

// Default returns the settings used when nothing is configured: an
// in-memory deployment that prints outbound SMS to stdout.
func Default() Config {
	return Config{
		Env:  "development",
		Port: 5000,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			IdleTimeout: 300 * time.Second,
		},
		SMS:       SMSConfig{Platform: sms.PlatformConsole},
		Store:     StoreConfig{Driver: DriverMemory},
		Scheduler: SchedulerConfig{Driver: DriverTimer},
		Ledger: LedgerConfig{
			Driver: DriverMemory,
			DynamoDB: DynamoDBConfig{
				DonationsTable: "donorline-donations",
				MessagesTable:  "donorline-messages",
			},
		},
	}
}

// Load reads path (when not empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Development reports whether the process runs outside production.
func (c Config) Development() bool {
	return c.Env == "" || c.Env == "development"
}

// CallbackURL is where the scheduler posts the inactivity check.
func (c Config) CallbackURL() string {
	if c.BaseURL == "" {
		return fmt.Sprintf("http://localhost:%d/api/check-inactivity", c.Port)
	}
	return strings.TrimRight(c.BaseURL, "/") + "/api/check-inactivity"
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("NODE_ENV", &c.Env)
	str("APP_BASE_URL", &c.BaseURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if v, ok := lookup("DEBUG"); ok && v == "true" {
		c.Log.Level = "debug"
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}

	str("MESSAGE_SENDING_PLATFORM", &c.SMS.Platform)
	str("TWILIO_ACCOUNT_SID", &c.SMS.Twilio.AccountSID)
	str("TWILIO_AUTH_TOKEN", &c.SMS.Twilio.AuthToken)
	str("TWILIO_MESSAGING_SERVICE_SID", &c.SMS.Twilio.MessagingServiceSID)
	str("TWILIO_PHONE_NUMBER", &c.SMS.Twilio.From)
	str("MESSAGECOLLAB_ACCOUNT_ID", &c.SMS.MessageCollab.AccountID)
	str("MESSAGECOLLAB_PHONE_NUMBER", &c.SMS.MessageCollab.From)
	str("MESSAGECOLLAB_TOKEN", &c.SMS.MessageCollab.Token)
	if v, ok := lookup("TWILIO_VERIFY_SIGNATURE"); ok {
		c.SMS.VerifySignature = v == "true"
	}

	str("STORE_DRIVER", &c.Store.Driver)
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		c.Store.RedisURL = v
		if _, set := lookup("STORE_DRIVER"); !set {
			c.Store.Driver = DriverRedis
		}
	}
	str("SESSION_ENCRYPTION_KEY", &c.Store.EncryptionKey)

	str("SCHEDULER_DRIVER", &c.Scheduler.Driver)
	str("QSTASH_URL", &c.Scheduler.QStashURL)
	if v, ok := lookup("QSTASH_TOKEN"); ok && v != "" {
		c.Scheduler.QStashToken = v
		if _, set := lookup("SCHEDULER_DRIVER"); !set {
			c.Scheduler.Driver = DriverQStash
		}
	}

	str("LEDGER_DRIVER", &c.Ledger.Driver)
	if v, ok := lookup("SHEET_ID"); ok && v != "" {
		c.Ledger.Sheets.SpreadsheetID = v
		if _, set := lookup("LEDGER_DRIVER"); !set {
			c.Ledger.Driver = DriverSheets
		}
	}
	str("SHEET_RANGE_DONATIONS", &c.Ledger.Sheets.DonationsRange)
	str("SHEET_RANGE_MESSAGES", &c.Ledger.Sheets.MessagesRange)
	str("GOOGLE_SERVICE_EMAIL", &c.Ledger.Sheets.ServiceEmail)
	str("GOOGLE_PRIVATE_KEY", &c.Ledger.Sheets.PrivateKey)
	str("GOOGLE_CREDENTIALS_JSON", &c.Ledger.Sheets.CredentialsJSON)
	str("AWS_REGION", &c.Ledger.DynamoDB.Region)
	str("DYNAMODB_REGION", &c.Ledger.DynamoDB.Region)
	str("DYNAMODB_DONATIONS_TABLE", &c.Ledger.DynamoDB.DonationsTable)
	str("DYNAMODB_MESSAGES_TABLE", &c.Ledger.DynamoDB.MessagesTable)
	if v, ok := lookup("REDACT_TRANSCRIPTS"); ok {
		c.Ledger.RedactTranscripts = v == "true"
	}

	if v, ok := lookup("SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		c.Session.TTL = d
	}
	return nil
}

// Validate checks that every key the selected adapters need is present.
func (c Config) Validate() error {
	var missing []string
	need := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch c.SMS.Platform {
	case sms.PlatformTwilio:
		need("TWILIO_ACCOUNT_SID", c.SMS.Twilio.AccountSID)
		need("TWILIO_AUTH_TOKEN", c.SMS.Twilio.AuthToken)
		if c.SMS.Twilio.MessagingServiceSID == "" {
			need("TWILIO_PHONE_NUMBER", c.SMS.Twilio.From)
		}
	case sms.PlatformMessageCollab:
		need("MESSAGECOLLAB_ACCOUNT_ID", c.SMS.MessageCollab.AccountID)
		need("MESSAGECOLLAB_PHONE_NUMBER", c.SMS.MessageCollab.From)
		need("MESSAGECOLLAB_TOKEN", c.SMS.MessageCollab.Token)
	case sms.PlatformConsole:
	default:
		return fmt.Errorf("%w: %q", sms.ErrUnknownPlatform, c.SMS.Platform)
	}
	if c.SMS.VerifySignature {
		need("TWILIO_AUTH_TOKEN", c.SMS.Twilio.AuthToken)
		need("APP_BASE_URL", c.BaseURL)
	}

	switch c.Store.Driver {
	case DriverRedis:
		need("REDIS_URL", c.Store.RedisURL)
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Scheduler.Driver {
	case DriverQStash:
		need("QSTASH_TOKEN", c.Scheduler.QStashToken)
		if !c.Development() {
			need("APP_BASE_URL", c.BaseURL)
		}
	case DriverTimer, DriverNone:
	default:
		return fmt.Errorf("unknown scheduler driver %q", c.Scheduler.Driver)
	}

	switch c.Ledger.Driver {
	case DriverSheets:
		need("SHEET_ID", c.Ledger.Sheets.SpreadsheetID)
		need("SHEET_RANGE_DONATIONS", c.Ledger.Sheets.DonationsRange)
		need("SHEET_RANGE_MESSAGES", c.Ledger.Sheets.MessagesRange)
		if c.Ledger.Sheets.CredentialsJSON == "" {
			need("GOOGLE_SERVICE_EMAIL", c.Ledger.Sheets.ServiceEmail)
			need("GOOGLE_PRIVATE_KEY", c.Ledger.Sheets.PrivateKey)
		}
	case DriverDynamoDB:
		need("DYNAMODB_DONATIONS_TABLE", c.Ledger.DynamoDB.DonationsTable)
		need("DYNAMODB_MESSAGES_TABLE", c.Ledger.DynamoDB.MessagesTable)
	case DriverMemory:
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(dedupe(missing), ", "))
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
