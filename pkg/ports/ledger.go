package ports

import (
	"context"

	"github.com/aretw0/donorline/pkg/domain"
)

// Ledger is the write-only sink for confirmed donations and the message transcript.
type Ledger interface {
	AppendDonation(ctx context.Context, record domain.DonationRecord) error
	AppendMessage(ctx context.Context, entry domain.MessageLog) error
}

// Checker is implemented by collaborators that can verify their connectivity.
type Checker interface {
	Check(ctx context.Context) error
}
