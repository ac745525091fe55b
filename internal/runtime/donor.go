package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/validator"
)

// ConfirmDonor texts a thank-you to the donor once the office has processed
// the donation. The phone is normalized to E.164; a *validator.Error is
// returned when it cannot be.
func (e *Engine) ConfirmDonor(ctx context.Context, name, amount, phone string) error {
	to, err := validator.E164(phone)
	if err != nil {
		return err
	}
	text := domain.Render(domain.MsgDonorConfirmation, map[string]string{
		"name":   strings.TrimSpace(name),
		"amount": strings.TrimSpace(amount),
	})
	if _, err := e.gateway.Send(ctx, to, text); err != nil {
		return fmt.Errorf("failed to send donor confirmation: %w", err)
	}
	e.audit(ctx, to, domain.Outbound, nil, text)
	e.emitMessage(ctx, to, domain.Outbound, 0)
	e.logger.Info("Donor confirmation sent", logging.Phone(to))
	return nil
}
