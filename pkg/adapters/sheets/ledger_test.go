package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appendCall struct {
	path   string
	option string
	rows   [][]string
}

type fakeSheets struct {
	mu    sync.Mutex
	calls []appendCall
	fail  bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.fail {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
		return
	}
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(`{"range":"Donations!A1:A1","values":[["Record ID"]]}`))
		return
	}

	var body struct {
		Values [][]string `json:"values"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, appendCall{path: r.URL.Path, option: r.URL.Query().Get("valueInputOption"), rows: body.Values})
	f.mu.Unlock()

	_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Donations!A2:H2","updatedRows":1}}`))
}

func newLedger(t *testing.T, f *fakeSheets) *Ledger {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	l, err := New(context.Background(), Config{
		SpreadsheetID:  "sheet-1",
		DonationsRange: "Donations!A:H",
		MessagesRange:  "Messages!A:E",
	}, WithHTTPClient(srv.Client()), WithBaseURL(srv.URL))
	require.NoError(t, err)
	return l
}

func TestAppendDonation(t *testing.T) {
	f := &fakeSheets{}
	l := newLedger(t, f)

	rec := domain.DonationRecord{
		ID:           "D-123456-042",
		Congregation: "Bais Shalom",
		PersonName:   "John Doe",
		PersonPhone:  "212-555-1234",
		TaxID:        "12-3456789",
		Amount:       "$125.00",
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, l.AppendDonation(context.Background(), rec))

	require.Len(t, f.calls, 1)
	call := f.calls[0]
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Donations!A:H:append", call.path)
	assert.Equal(t, "USER_ENTERED", call.option)
	require.Len(t, call.rows, 1)
	assert.Equal(t, []string{"D-123456-042", "Bais Shalom", "John Doe", "212-555-1234", "12-3456789", "$125.00", "2025-03-01T12:00:00Z", ""}, call.rows[0])
}

func TestAppendMessage(t *testing.T) {
	f := &fakeSheets{}
	l := newLedger(t, f)

	step := domain.StepAmount
	entry := domain.MessageLog{
		At:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Identity:  "+12125551234",
		Direction: domain.Inbound,
		Step:      &step,
		Text:      "125",
	}
	require.NoError(t, l.AppendMessage(context.Background(), entry))

	require.Len(t, f.calls, 1)
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Messages!A:E:append", f.calls[0].path)
	assert.Equal(t, []string{"2025-03-01T12:00:00Z", "+12125551234", "inbound", "5", "125"}, f.calls[0].rows[0])
}

func TestErrors(t *testing.T) {
	f := &fakeSheets{fail: true}
	l := newLedger(t, f)

	err := l.AppendDonation(context.Background(), domain.DonationRecord{ID: "D-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not have permission")
	assert.Error(t, l.Check(context.Background()))
}

func TestCheck(t *testing.T) {
	l := newLedger(t, &fakeSheets{})
	assert.NoError(t, l.Check(context.Background()))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{SpreadsheetID: "x", DonationsRange: "A", MessagesRange: "B"})
	assert.ErrorIs(t, err, ErrNotConfigured, "credentials are required without an explicit client")
}
