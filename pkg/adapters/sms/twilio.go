package sms

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/tidwall/gjson"
)

// TwilioBaseURL is the Twilio REST API host.
const TwilioBaseURL = "https://api.twilio.com"

// Twilio sends messages through the Twilio Messages API.
type Twilio struct {
	cfg TwilioConfig
	options
}

// NewTwilio creates a Twilio gateway. AccountSID, AuthToken and one of
// MessagingServiceSID or From are required.
func NewTwilio(cfg TwilioConfig, opts ...Option) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: twilio account sid and auth token are required", ErrNotConfigured)
	}
	if cfg.MessagingServiceSID == "" && cfg.From == "" {
		return nil, fmt.Errorf("%w: twilio messaging service sid or phone number is required", ErrNotConfigured)
	}
	return &Twilio{cfg: cfg, options: newOptions(TwilioBaseURL, opts)}, nil
}

func (t *Twilio) Send(ctx context.Context, to, text string) (domain.Delivery, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("Body", text)
	if t.cfg.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", t.cfg.MessagingServiceSID)
	} else {
		form.Set("From", t.cfg.From)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("failed to call Twilio API: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, "Twilio")
	if err != nil {
		return domain.Delivery{}, err
	}
	return domain.Delivery{ID: gjson.GetBytes(body, "sid").String(), Provider: PlatformTwilio}, nil
}

// Check fetches the account resource to verify the credentials.
func (t *Twilio) Check(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", t.baseURL, t.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Twilio API: %w", err)
	}
	defer resp.Body.Close()

	_, err = readBody(resp, "Twilio")
	return err
}

// ValidateSignature reports whether signature is the X-Twilio-Signature for a
// request to fullURL with the given form parameters.
//
// The signed payload is the URL followed by every parameter name and value,
// sorted by name, hashed with HMAC-SHA1 keyed by the auth token.
func ValidateSignature(authToken, signature, fullURL string, params url.Values) bool {
	if authToken == "" || signature == "" {
		return false
	}
	expected := Signature(authToken, fullURL, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Signature computes the Twilio request signature.
func Signature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
