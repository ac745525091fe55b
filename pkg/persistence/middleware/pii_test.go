package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/persistence/middleware"
)

func TestRedactionMiddleware_Masking(t *testing.T) {
	underlying := &MockLedger{}
	ledger := middleware.NewRedactionMiddleware()(underlying)
	ctx := context.Background()

	for _, text := range []string{"123456789", "my tax id is 12-3456789 thanks", "2125551234"} {
		if err := ledger.AppendMessage(ctx, domain.MessageLog{Text: text}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}
	if err := ledger.AppendDonation(ctx, domain.DonationRecord{ID: "D-1", TaxID: "12-3456789"}); err != nil {
		t.Fatalf("AppendDonation failed: %v", err)
	}

	want := []string{"***", "my tax id is *** thanks", "2125551234"}
	for i, m := range underlying.Messages {
		if m.Text != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], m.Text)
		}
	}
	if underlying.Donations[0].TaxID != "12-3456789" {
		t.Error("Donation records must not be redacted")
	}
}

func TestRedactionMiddleware_CustomPatterns(t *testing.T) {
	underlying := &MockLedger{}
	ledger := middleware.NewRedactionMiddleware(`(?i)secret`)(underlying)

	_ = ledger.AppendMessage(context.Background(), domain.MessageLog{Text: "a Secret note 123456789"})
	if got := underlying.Messages[0].Text; got != "a *** note 123456789" {
		t.Errorf("unexpected redaction: %q", got)
	}
}
