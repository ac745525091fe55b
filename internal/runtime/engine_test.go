package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/donorline/internal/runtime"
	"github.com/aretw0/donorline/pkg/adapters/memory"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/aretw0/donorline/pkg/session"
	"github.com/aretw0/donorline/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sender = "+12125550000"

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []domain.Job
	cancelled []string
	fail      error
}

func (f *fakeScheduler) Schedule(ctx context.Context, job domain.Job) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.scheduled = append(f.scheduled, job)
	return fmt.Sprintf("job-%d", len(f.scheduled)), nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return true, nil
}

type harness struct {
	engine *runtime.Engine
	store  *memory.Store
	gw     *memory.Gateway
	ledger *memory.Ledger
	sched  *fakeScheduler
	now    time.Time
}

func newHarness(t *testing.T, opts ...runtime.EngineOption) *harness {
	t.Helper()
	h := &harness{
		store:  memory.NewStore(),
		gw:     memory.NewGateway(),
		ledger: memory.NewLedger(),
		sched:  &fakeScheduler{},
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	base := []runtime.EngineOption{
		runtime.WithClock(func() time.Time { return h.now }),
		runtime.WithRecordIDs(func(time.Time) string { return "D-123456-789" }),
		runtime.WithTimeouts(h.sched, h.store, "https://donorline.example/api/check-inactivity"),
	}
	h.engine = runtime.NewEngine(session.NewManager(h.store), h.gw, h.ledger, append(base, opts...)...)
	return h
}

func (h *harness) send(t *testing.T, text string) string {
	t.Helper()
	reply, err := h.engine.HandleMessage(context.Background(), sender, text)
	require.NoError(t, err, "message %q", text)
	return reply
}

func (h *harness) session(t *testing.T) *domain.Session {
	t.Helper()
	s, err := h.engine.Session(context.Background(), sender)
	require.NoError(t, err)
	return s
}

// toConfirmation walks a sender through every field.
func (h *harness) toConfirmation(t *testing.T) string {
	t.Helper()
	var reply string
	for _, in := range []string{"Hi", "Bais Shalom", "John Doe", "2125551234", "123456789", "125", "skip"} {
		reply = h.send(t, in)
	}
	require.Equal(t, domain.StepConfirmation, h.session(t).Step)
	return reply
}

func TestEngine_CompleteDonationIsSaved(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, domain.MsgGreeting, h.send(t, "Hi"))
	assert.Contains(t, h.send(t, "Bais Shalom"), "the congregation is Bais Shalom")
	assert.Contains(t, h.send(t, "John Doe"), "John Doe")
	assert.Contains(t, h.send(t, "2125551234"), "212-555-1234")
	assert.Contains(t, h.send(t, "123456789"), "12-3456789")
	assert.Contains(t, h.send(t, "125"), "$125.00")

	summary := h.send(t, "skip")
	assert.Contains(t, summary, "6. Note: (none)")

	reply := h.send(t, "Yes")
	assert.Contains(t, reply, "Record ID: D-123456-789")

	records := h.ledger.Donations()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "D-123456-789", r.ID)
	assert.Equal(t, "Bais Shalom", r.Congregation)
	assert.Equal(t, "John Doe", r.PersonName)
	assert.Equal(t, "212-555-1234", r.PersonPhone)
	assert.Equal(t, "12-3456789", r.TaxID)
	assert.Equal(t, "$125.00", r.Amount)
	assert.Equal(t, "", r.Note)
	assert.Equal(t, h.now, r.CreatedAt)

	s := h.session(t)
	assert.Equal(t, domain.StepGreeting, s.Step)
	assert.True(t, s.WaitingForNewEntry)
	assert.Empty(t, s.Data)
}

func TestEngine_DuplicateYesWritesOneRecord(t *testing.T) {
	h := newHarness(t)
	h.toConfirmation(t)

	h.send(t, "Yes")
	assert.Equal(t, domain.MsgWaitingPrompt, h.send(t, "Yes"))
	assert.Len(t, h.ledger.Donations(), 1)

	assert.Equal(t, domain.MsgStart, h.send(t, "New entry"))
	s := h.session(t)
	assert.Equal(t, domain.StepCongregation, s.Step)
	assert.False(t, s.WaitingForNewEntry)
	assert.Empty(t, s.Data)
}

func TestEngine_WaitingEndConversation(t *testing.T) {
	h := newHarness(t)
	h.toConfirmation(t)
	h.send(t, "Yes")

	assert.Equal(t, domain.MsgConversationEnd, h.send(t, "No"))
	_, err := h.store.Load(context.Background(), sender)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_RejectsShortName(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")
	h.send(t, "Bais Shalom")

	// Single letters are caught by the mid-flow guard before validation.
	assert.Equal(t, domain.MsgMidFlow, h.send(t, "J"))
	assert.Equal(t, domain.StepPersonName, h.session(t).Step)

	assert.Equal(t, domain.MsgNameInvalid, h.send(t, "John"))
	s := h.session(t)
	assert.Equal(t, domain.StepPersonName, s.Step)
	assert.False(t, s.Has(domain.FieldPersonName))
}

func TestEngine_NumberedEditAtConfirmation(t *testing.T) {
	h := newHarness(t)
	h.toConfirmation(t)
	before := h.session(t)

	reply := h.send(t, "2. Jane Roe")
	assert.Contains(t, reply, "2. Person: Jane Roe")

	s := h.session(t)
	assert.Equal(t, domain.StepConfirmation, s.Step)
	assert.Equal(t, "Jane Roe", s.Get(domain.FieldPersonName))
	for _, f := range domain.Fields {
		if f != domain.FieldPersonName {
			assert.Equal(t, before.Get(f), s.Get(f), f)
		}
	}

	reply = h.send(t, "2.Moshe Cohen")
	assert.Contains(t, reply, "2. Person: Moshe Cohen")
	assert.Equal(t, "Moshe Cohen", h.session(t).Get(domain.FieldPersonName))

	assert.Equal(t, domain.MsgConfirmationBadNum, h.send(t, "9. whatever"))
	assert.Equal(t, domain.MsgPhoneInvalid, h.send(t, "3. 555"))
	assert.Equal(t, domain.MsgConfirmationChange, h.send(t, "nope"))
	assert.Equal(t, domain.StepConfirmation, h.session(t).Step)
}

func TestEngine_CancelDeletesSession(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")
	h.send(t, "Bais Shalom")

	assert.Equal(t, domain.MsgCancel, h.send(t, "cancel"))
	_, err := h.store.Load(context.Background(), sender)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.Equal(t, domain.MsgGreeting, h.send(t, "hello"))
	assert.Equal(t, domain.StepCongregation, h.session(t).Step)
}

func TestEngine_InactivityNudgesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.send(t, "Hi")
	h.send(t, "Bais Shalom")
	sent := len(h.gw.Sent())

	h.now = h.now.Add(300 * time.Second)
	nudged, err := h.engine.CheckInactivity(ctx, sender)
	require.NoError(t, err)
	assert.False(t, nudged)
	assert.False(t, h.session(t).TimedOut)
	assert.Len(t, h.gw.Sent(), sent)

	h.now = h.now.Add(time.Second)
	nudged, err = h.engine.CheckInactivity(ctx, sender)
	require.NoError(t, err)
	assert.True(t, nudged)
	assert.Equal(t, domain.MsgTimeout, h.gw.Last().Text)

	s := h.session(t)
	assert.True(t, s.TimedOut)
	assert.Equal(t, domain.StepPersonName, s.Step, "the nudge never advances the step")
	_, err = h.store.GetJob(ctx, sender)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	nudged, err = h.engine.CheckInactivity(ctx, sender)
	require.NoError(t, err)
	assert.False(t, nudged, "only one nudge per silence")

	h.send(t, "John Doe")
	assert.False(t, h.session(t).TimedOut, "the next message clears the flag")
}

func TestEngine_InactivityIgnoresIdleStates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	nudged, err := h.engine.CheckInactivity(ctx, sender)
	require.NoError(t, err)
	assert.False(t, nudged, "unknown sender")

	h.toConfirmation(t)
	h.send(t, "Yes")
	h.now = h.now.Add(time.Hour)
	nudged, err = h.engine.CheckInactivity(ctx, sender)
	require.NoError(t, err)
	assert.False(t, nudged, "waiting for a new entry")
}

func TestEngine_MidFlowGuard(t *testing.T) {
	h := newHarness(t)
	for _, in := range []string{"Hi", "Bais Shalom", "John Doe", "2125551234", "123456789"} {
		h.send(t, in)
	}
	require.Equal(t, domain.StepAmount, h.session(t).Step)

	assert.Equal(t, domain.MsgMidFlow, h.send(t, "ok"))
	assert.Equal(t, domain.StepAmount, h.session(t).Step)

	assert.Contains(t, h.send(t, "5"), "$5.00")
	assert.Equal(t, domain.StepNote, h.session(t).Step)

	assert.Equal(t, domain.MsgMidFlow, h.send(t, "hi"), "a greeting mid-flow gets the guard")
	assert.Equal(t, domain.Prompts[domain.StepNote], h.send(t, "finish"))
}

func TestEngine_GreetingStep(t *testing.T) {
	h := newHarness(t)

	// Ambiguous text opens the conversation like a greeting.
	assert.Equal(t, domain.MsgGreeting, h.send(t, "ok"))
	assert.Equal(t, domain.StepCongregation, h.session(t).Step)

	h.send(t, "cancel")
	// Anything else at greeting is taken as the congregation answer.
	assert.Contains(t, h.send(t, "Bais Shalom"), "Bais Shalom")
	assert.Equal(t, domain.StepPersonName, h.session(t).Step)
}

func TestEngine_GreetingAtConfirmationShowsSummary(t *testing.T) {
	h := newHarness(t)
	summary := h.toConfirmation(t)
	assert.Equal(t, summary, h.send(t, "hello"))
	assert.Equal(t, domain.StepConfirmation, h.session(t).Step)
}

func TestEngine_EditFromConfirmation(t *testing.T) {
	h := newHarness(t)
	h.toConfirmation(t)

	assert.Equal(t, domain.Prompts[domain.StepAmount], h.send(t, "change the amount"))
	s := h.session(t)
	assert.Equal(t, domain.StepAmount, s.Step)
	assert.Equal(t, domain.FieldAmount, s.EditingField)

	reply := h.send(t, "200")
	assert.Contains(t, reply, "5. Amount: $200.00")
	s = h.session(t)
	assert.Equal(t, domain.StepConfirmation, s.Step)
	assert.Empty(t, s.EditingField)
	assert.Equal(t, "200.00", s.Get(domain.FieldAmountNumeric))
}

func TestEngine_EditMidFlow(t *testing.T) {
	h := newHarness(t)
	for _, in := range []string{"Hi", "Bais Shalom", "John Doe", "2125551234"} {
		h.send(t, in)
	}
	require.Equal(t, domain.StepTaxID, h.session(t).Step)

	h.send(t, "change name")
	assert.Equal(t, domain.StepPersonName, h.session(t).Step)

	reply := h.send(t, "Jane Roe")
	assert.Equal(t, domain.MsgUpdated+"\n"+domain.Prompts[domain.StepTaxID], reply)
	s := h.session(t)
	assert.Equal(t, domain.StepTaxID, s.Step)
	assert.Equal(t, "Jane Roe", s.Get(domain.FieldPersonName))
	assert.Empty(t, s.EditingField)
}

func TestEngine_EditNotYetCollected(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")
	h.send(t, "Bais Shalom")

	reply := h.send(t, "change the amount")
	assert.Equal(t, domain.MsgEditLater+"\n"+domain.Prompts[domain.StepPersonName], reply)
	s := h.session(t)
	assert.Equal(t, domain.StepPersonName, s.Step)
	assert.Empty(t, s.EditingField)

	assert.Contains(t, h.send(t, "change the weather"), "What would you like to change?")
}

func TestEngine_StartOverAndHelp(t *testing.T) {
	h := newHarness(t)
	for _, in := range []string{"Hi", "Bais Shalom", "John Doe"} {
		h.send(t, in)
	}
	assert.Contains(t, h.send(t, "help"), "Current step: 3")

	assert.Equal(t, domain.MsgStart, h.send(t, "start over"))
	s := h.session(t)
	assert.Equal(t, domain.StepCongregation, s.Step)
	assert.Empty(t, s.Data)
}

func TestEngine_LedgerFailureKeepsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.toConfirmation(t)

	h.ledger.FailDonations = errors.New("sheets unavailable")
	assert.Equal(t, domain.MsgSaveFailed, h.send(t, "Yes"))
	s := h.session(t)
	assert.Equal(t, domain.StepConfirmation, s.Step)
	assert.Equal(t, "John Doe", s.Get(domain.FieldPersonName))

	h.ledger.FailDonations = nil
	assert.Contains(t, h.send(t, "yes"), "Record ID")
	assert.Len(t, h.ledger.Donations(), 1)
}

func TestEngine_GatewayFailureIsNotFatal(t *testing.T) {
	var failures []string
	h := newHarness(t, runtime.WithLifecycleHooks(domain.Hooks{
		OnCollaboratorError: func(ctx context.Context, e *domain.CollaboratorEvent) {
			failures = append(failures, e.Collaborator)
		},
	}))
	h.gw.Fail = errors.New("twilio down")

	h.send(t, "Hi")
	assert.Equal(t, domain.StepCongregation, h.session(t).Step, "state still advances")
	assert.Contains(t, failures, "gateway")
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) Save(ctx context.Context, key string, s *domain.Session, ttl time.Duration) error {
	return errors.New("connection refused")
}

func TestEngine_StoreFailureIsCritical(t *testing.T) {
	gw := memory.NewGateway()
	engine := runtime.NewEngine(session.NewManager(brokenStore{memory.NewStore()}), gw, memory.NewLedger())

	_, err := engine.HandleMessage(context.Background(), sender, "Hi")
	require.Error(t, err)
	assert.Equal(t, domain.MsgError, gw.Last().Text)
}

func TestEngine_TimeoutScheduling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.send(t, "Hi")
	require.Len(t, h.sched.scheduled, 1)
	job := h.sched.scheduled[0]
	assert.Equal(t, "https://donorline.example/api/check-inactivity", job.CallbackURL)
	assert.Equal(t, 300*time.Second, job.Delay)
	assert.Equal(t, map[string]string{"phone": sender}, job.Payload)
	id, err := h.store.GetJob(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	h.send(t, "Bais Shalom")
	assert.Equal(t, []string{"job-1"}, h.sched.cancelled)
	id, err = h.store.GetJob(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, "job-2", id, "at most one outstanding job")

	h.send(t, "cancel")
	assert.Equal(t, []string{"job-1", "job-2"}, h.sched.cancelled)
	assert.Len(t, h.sched.scheduled, 2, "no job after cancel")
	_, err = h.store.GetJob(ctx, sender)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestEngine_SchedulerFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.sched.fail = errors.New("qstash 500")
	assert.Equal(t, domain.MsgGreeting, h.send(t, "Hi"))
}

func TestEngine_Transcript(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")

	msgs := h.ledger.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.Inbound, msgs[0].Direction)
	assert.Equal(t, "Hi", msgs[0].Text)
	require.NotNil(t, msgs[0].Step)
	assert.Equal(t, domain.StepGreeting, *msgs[0].Step)
	assert.Equal(t, domain.Outbound, msgs[1].Direction)
	require.NotNil(t, msgs[1].Step)
	assert.Equal(t, domain.StepCongregation, *msgs[1].Step)
}

func TestEngine_Hooks(t *testing.T) {
	var mu sync.Mutex
	var transitions []string
	var commands []string
	var donations int
	hooks := domain.Hooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, e.From.String()+">"+e.To.String())
		},
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			commands = append(commands, e.Command)
		},
		OnDonation: func(ctx context.Context, e *domain.DonationEvent) {
			donations++
		},
	}
	h := newHarness(t, runtime.WithLifecycleHooks(hooks))
	h.toConfirmation(t)
	h.send(t, "Yes")

	assert.Equal(t, []string{
		"greeting>congregation",
		"congregation>person_name",
		"person_name>phone_number",
		"phone_number>tax_id",
		"tax_id>amount",
		"amount>note",
		"note>confirmation",
		"confirmation>greeting",
	}, transitions)
	assert.Equal(t, []string{"greeting"}, commands)
	assert.Equal(t, 1, donations)
}

// overlapStore flags any Load that starts while another sender's
// load/persist cycle is still open.
type overlapStore struct {
	*memory.Store
	active   atomic.Int32
	overlaps atomic.Int32
}

func (o *overlapStore) Load(ctx context.Context, key string) (*domain.Session, error) {
	if o.active.Add(1) > 1 {
		o.overlaps.Add(1)
	}
	time.Sleep(time.Millisecond)
	return o.Store.Load(ctx, key)
}

func (o *overlapStore) Save(ctx context.Context, key string, s *domain.Session, ttl time.Duration) error {
	defer o.active.Add(-1)
	return o.Store.Save(ctx, key, s, ttl)
}

func (o *overlapStore) Delete(ctx context.Context, key string) error {
	defer o.active.Add(-1)
	return o.Store.Delete(ctx, key)
}

func TestEngine_SerializesSameSender(t *testing.T) {
	store := &overlapStore{Store: memory.NewStore()}
	ledger := memory.NewLedger()
	engine := runtime.NewEngine(session.NewManager(store), memory.NewGateway(), ledger)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.HandleMessage(context.Background(), sender, "help")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, store.overlaps.Load())
	assert.Len(t, ledger.Messages(), 40)
}

func TestEngine_EditingFieldInvariant(t *testing.T) {
	h := newHarness(t)
	inputs := []string{
		"Hi", "Bais Shalom", "change congregation", "Young Israel", "John Doe",
		"edit 1", "ok", "Ohev Sholom", "2125551234", "123456789", "change name", "J",
		"Jane Roe", "125", "skip", "change 4", "987654321", "change note", "in memory of Sarah",
		"4. 111111111", "fix", "Yes", "Yes", "new", "Bais Shalom", "cancel",
	}
	for _, in := range inputs {
		h.send(t, in)
		s, err := h.store.Load(context.Background(), sender)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		require.NoError(t, err)
		if s.EditingField != "" {
			assert.Equal(t, s.EditingField.Step(), s.Step, "after %q", in)
		}
		assert.False(t, s.Step == domain.StepConfirmation && s.EditingField != "", "after %q", in)
	}
}

var _ ports.Scheduler = (*fakeScheduler)(nil)

func TestEngine_ConfirmDonor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.ConfirmDonor(ctx, " Jane Roe ", "$50.00", "(212) 555-1234"))

	last := h.gw.Last()
	assert.Equal(t, "+12125551234", last.To)
	assert.Equal(t, "Thank you Jane Roe! Your donation of $50.00 has been confirmed. We appreciate your generosity.", last.Text)

	msgs := h.ledger.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, domain.Outbound, msgs[len(msgs)-1].Direction)

	var verr *validator.Error
	assert.ErrorAs(t, h.engine.ConfirmDonor(ctx, "Jane", "$5", "555"), &verr)

	h.gw.Fail = errors.New("provider down")
	assert.Error(t, h.engine.ConfirmDonor(ctx, "Jane", "$5", "2125551234"))
}
