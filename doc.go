/*
Package donorline drives an SMS conversation that collects a donation record
one field at a time: congregation, donor name, phone, tax ID, amount and an
optional note.

Each inbound message is handled inside the sender's critical section. The
engine loads the session, classifies the text as a command or an answer,
validates the answer, persists the new state, replies, and schedules an
inactivity check. Confirmed donations are appended to a ledger.

# Architecture

The state machine in internal/runtime is pure: handlers take a session value
and return the next one. Everything that talks to the outside world is a port
(pkg/ports) with adapters in pkg/adapters: Redis or memory for sessions,
Twilio or MessageCollab for SMS, QStash or an in-process timer for delayed
callbacks, and Google Sheets, DynamoDB or memory for the ledger.

# Usage

	eng, err := donorline.New(
		donorline.WithGateway(sms.NewConsole(os.Stdout)),
		donorline.WithLedger(memory.NewLedger()),
	)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.HandleMessage(ctx, "+12125551234", "Hi")

The webhook server (internal/adapters/http) and the CLI (cmd/donorline) wire
the same engine to real collaborators from configuration.
*/
package donorline
