package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/donorline/pkg/domain"
)

// Sent is one captured outbound message.
type Sent struct {
	To   string
	Text string
}

// Gateway implements ports.Gateway by capturing messages instead of sending them.
type Gateway struct {
	mu   sync.Mutex
	sent []Sent

	// Fail, when set, is returned by Send.
	Fail error
}

// NewGateway creates an empty capture gateway.
func NewGateway() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Send(ctx context.Context, to, text string) (domain.Delivery, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail != nil {
		return domain.Delivery{}, g.Fail
	}
	g.sent = append(g.sent, Sent{To: to, Text: text})
	return domain.Delivery{ID: fmt.Sprintf("mem-%d", len(g.sent)), Provider: "memory"}, nil
}

// Sent returns every captured message in order.
func (g *Gateway) Sent() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Sent, len(g.sent))
	copy(out, g.sent)
	return out
}

// Last returns the most recent message, or the zero value.
func (g *Gateway) Last() Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return Sent{}
	}
	return g.sent[len(g.sent)-1]
}

// Reset drops captured messages.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}
