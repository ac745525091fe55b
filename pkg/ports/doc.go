/*
Package ports defines the driven ports (interfaces) of the donorline engine.

These interfaces decouple the conversation state machine from the concrete
services it talks to, so the same engine runs against Redis and Twilio in
production and against in-memory fakes in tests and the local simulator.

# Key Interfaces

  - SessionStore: persists per-sender Session state.
  - JobIndex: maps a sender to its pending inactivity job.
  - Scheduler: schedules and cancels the delayed inactivity callback.
  - Gateway: sends outbound SMS.
  - Ledger: records confirmed donations and the message transcript.
  - DistributedLocker: serializes access to one sender across replicas.

Contract suites (RunSessionStoreContract, RunJobIndexContract) let every
adapter prove it honours the same behaviour.
*/
package ports
