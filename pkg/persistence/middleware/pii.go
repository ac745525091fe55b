package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
)

// DefaultTaxIDPattern matches nine-digit tax IDs with or without the dash.
const DefaultTaxIDPattern = `\b\d{2}-?\d{7}\b`

const redacted = "***"

type redactionMiddleware struct {
	next     ports.Ledger
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks every match of the patterns in transcript
// lines before they reach the ledger. Donation records pass through untouched.
func NewRedactionMiddleware(patternStrings ...string) LedgerMiddleware {
	if len(patternStrings) == 0 {
		patternStrings = []string{DefaultTaxIDPattern}
	}
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Ledger) ports.Ledger {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) AppendDonation(ctx context.Context, record domain.DonationRecord) error {
	return m.next.AppendDonation(ctx, record)
}

func (m *redactionMiddleware) AppendMessage(ctx context.Context, entry domain.MessageLog) error {
	for _, p := range m.patterns {
		entry.Text = p.ReplaceAllString(entry.Text, redacted)
	}
	return m.next.AppendMessage(ctx, entry)
}

// Check forwards to the wrapped ledger when it supports connectivity checks.
func (m *redactionMiddleware) Check(ctx context.Context) error {
	if c, ok := m.next.(ports.Checker); ok {
		return c.Check(ctx)
	}
	return nil
}
