package middleware_test

import (
	"context"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointers it is given so tests can inspect what was written.
type MockStore struct {
	data map[string]*domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Session),
	}
}

func (s *MockStore) Save(ctx context.Context, key string, session *domain.Session, ttl time.Duration) error {
	s.data[key] = session
	return nil
}

func (s *MockStore) Load(ctx context.Context, key string) (*domain.Session, error) {
	session, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

var _ ports.SessionStore = (*MockStore)(nil)

// MockLedger records what reaches it.
type MockLedger struct {
	Donations []domain.DonationRecord
	Messages  []domain.MessageLog
}

func (l *MockLedger) AppendDonation(ctx context.Context, r domain.DonationRecord) error {
	l.Donations = append(l.Donations, r)
	return nil
}

func (l *MockLedger) AppendMessage(ctx context.Context, m domain.MessageLog) error {
	l.Messages = append(l.Messages, m)
	return nil
}

var _ ports.Ledger = (*MockLedger)(nil)
