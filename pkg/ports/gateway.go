package ports

import (
	"context"

	"github.com/aretw0/donorline/pkg/domain"
)

// Gateway sends an outbound text message.
type Gateway interface {
	Send(ctx context.Context, to, text string) (domain.Delivery, error)
}
