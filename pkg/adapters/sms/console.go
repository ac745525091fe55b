package sms

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/google/uuid"
)

// Console writes outbound messages to a writer. Used by the local simulator
// and in development.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console gateway writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Send(ctx context.Context, to, text string) (domain.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "[sms -> %s]\n%s\n", to, text); err != nil {
		return domain.Delivery{}, fmt.Errorf("failed to write message: %w", err)
	}
	return domain.Delivery{ID: uuid.NewString(), Provider: PlatformConsole}, nil
}
