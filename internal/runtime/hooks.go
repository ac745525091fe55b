package runtime

import (
	"context"
	"time"

	"github.com/aretw0/donorline/pkg/command"
	"github.com/aretw0/donorline/pkg/domain"
)

func (e *Engine) event(t domain.EventType, identity string) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		Identity:  identity,
	}
}

func (e *Engine) emitMessage(ctx context.Context, identity string, dir domain.Direction, d time.Duration) {
	if e.hooks.OnMessage != nil {
		e.hooks.OnMessage(ctx, &domain.MessageEvent{
			EventBase: e.event(domain.EventMessage, identity),
			Direction: dir,
			Duration:  d,
		})
	}
}

func (e *Engine) emitCommand(ctx context.Context, identity string, kind command.Kind) {
	if kind == command.None || e.hooks.OnCommand == nil {
		return
	}
	e.hooks.OnCommand(ctx, &domain.CommandEvent{
		EventBase: e.event(domain.EventCommand, identity),
		Command:   kind.String(),
	})
}

func (e *Engine) emitTransition(ctx context.Context, identity string, from, to domain.Step) {
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: e.event(domain.EventTransition, identity),
			From:      from,
			To:        to,
		})
	}
}

func (e *Engine) emitDonation(ctx context.Context, identity, recordID string) {
	if e.hooks.OnDonation != nil {
		e.hooks.OnDonation(ctx, &domain.DonationEvent{
			EventBase: e.event(domain.EventDonation, identity),
			RecordID:  recordID,
		})
	}
}

func (e *Engine) emitNudge(ctx context.Context, identity string) {
	if e.hooks.OnNudge != nil {
		base := e.event(domain.EventNudge, identity)
		e.hooks.OnNudge(ctx, &base)
	}
}
