package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/donorline/pkg/domain"
)

// Ledger implements ports.Ledger by keeping every row in memory.
type Ledger struct {
	mu        sync.Mutex
	donations []domain.DonationRecord
	messages  []domain.MessageLog

	// FailDonations, when set, is returned by AppendDonation.
	FailDonations error
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendDonation(ctx context.Context, r domain.DonationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailDonations != nil {
		return l.FailDonations
	}
	l.donations = append(l.donations, r)
	return nil
}

func (l *Ledger) AppendMessage(ctx context.Context, m domain.MessageLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
	return nil
}

// Donations returns a snapshot of the recorded donations.
func (l *Ledger) Donations() []domain.DonationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.donations)
}

// Messages returns a snapshot of the transcript.
func (l *Ledger) Messages() []domain.MessageLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.messages)
}

// Check always succeeds.
func (l *Ledger) Check(ctx context.Context) error { return nil }
