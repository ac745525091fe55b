package runtime

import (
	"time"

	"github.com/aretw0/donorline/pkg/command"
	"github.com/aretw0/donorline/pkg/domain"
)

// Outcome is the result of handling one inbound message.
// Handlers never perform I/O; the Engine applies the outcome.
type Outcome struct {
	// Session is the state to persist. Nil deletes the session.
	Session *domain.Session
	// Reply is the text sent back to the sender.
	Reply string
	// Record, when set, is appended to the ledger before the session is persisted.
	Record *domain.DonationRecord
	// Command is the command that produced the outcome, or command.None for step handling.
	Command command.Kind
}

// turn carries the per-message values handlers may need without reaching for globals.
type turn struct {
	now      time.Time
	recordID func(time.Time) string
}

func keep(s *domain.Session, reply string) Outcome {
	return Outcome{Session: s, Reply: reply}
}
