package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Messages           *prometheus.CounterVec
	Commands           *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	Donations          prometheus.Counter
	CollaboratorErrors *prometheus.CounterVec
	Nudges             prometheus.Counter
	MessageDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donorline_messages_total",
				Help: "Total number of SMS messages handled, by direction",
			},
			[]string{"direction"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donorline_commands_total",
				Help: "Total number of recognized commands",
			},
			[]string{"command"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donorline_step_transitions_total",
				Help: "Total number of conversation step changes",
			},
			[]string{"from", "to"},
		),
		Donations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donorline_donations_total",
			Help: "Total number of donation records written",
		}),
		CollaboratorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donorline_collaborator_errors_total",
				Help: "Total number of failed non-critical collaborator calls",
			},
			[]string{"collaborator"},
		),
		Nudges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donorline_inactivity_nudges_total",
			Help: "Total number of inactivity nudges sent",
		}),
		MessageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "donorline_message_duration_seconds",
			Help:    "Time spent processing one inbound message",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Messages,
			m.Commands,
			m.Transitions,
			m.Donations,
			m.CollaboratorErrors,
			m.Nudges,
			m.MessageDuration,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues(string(e.Direction)).Inc()
			if e.Direction == domain.Inbound {
				m.MessageDuration.Observe(e.Duration.Seconds())
			}
		},
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			m.Commands.WithLabelValues(e.Command).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.From.String(), e.To.String()).Inc()
		},
		OnDonation: func(context.Context, *domain.DonationEvent) {
			m.Donations.Inc()
		},
		OnCollaboratorError: func(_ context.Context, e *domain.CollaboratorEvent) {
			m.CollaboratorErrors.WithLabelValues(e.Collaborator).Inc()
		},
		OnNudge: func(context.Context, *domain.EventBase) {
			m.Nudges.Inc()
		},
	}
}

// LogHooks returns hooks that write one debug line per event.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			logger.Debug("command", logging.Phone(e.Identity), logging.Command(e.Command))
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			logger.Debug("transition",
				logging.Phone(e.Identity),
				slog.String("from", e.From.String()),
				slog.String("to", e.To.String()),
			)
		},
		OnDonation: func(_ context.Context, e *domain.DonationEvent) {
			logger.Info("donation", logging.Phone(e.Identity), logging.RecordID(e.RecordID))
		},
		OnNudge: func(_ context.Context, e *domain.EventBase) {
			logger.Debug("nudge", logging.Phone(e.Identity))
		},
	}
}

// Combine fans every event out to each of the given hook sets in order.
func Combine(all ...domain.Hooks) domain.Hooks {
	var out domain.Hooks
	for _, h := range all {
		h := h
		out.OnMessage = chain(out.OnMessage, h.OnMessage)
		out.OnCommand = chain(out.OnCommand, h.OnCommand)
		out.OnTransition = chain(out.OnTransition, h.OnTransition)
		out.OnDonation = chain(out.OnDonation, h.OnDonation)
		out.OnCollaboratorError = chain(out.OnCollaboratorError, h.OnCollaboratorError)
		out.OnNudge = chain(out.OnNudge, h.OnNudge)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
