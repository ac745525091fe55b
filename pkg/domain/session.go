package domain

import (
	"maps"
	"time"
)

// Field names a value collected during the flow.
type Field string

const (
	FieldCongregation  Field = "congregation"
	FieldPersonName    Field = "personName"
	FieldPersonPhone   Field = "personPhone"
	FieldTaxID         Field = "taxId"
	FieldAmount        Field = "amount"
	FieldAmountNumeric Field = "amountNumeric"
	FieldNote          Field = "note"
)

// Fields lists the user-editable fields in the order they are collected.
// The position in this slice (1-based) is the number used by numbered edits.
var Fields = []Field{
	FieldCongregation,
	FieldPersonName,
	FieldPersonPhone,
	FieldTaxID,
	FieldAmount,
	FieldNote,
}

// Step returns the step that collects the field.
func (f Field) Step() Step {
	switch f {
	case FieldCongregation:
		return StepCongregation
	case FieldPersonName:
		return StepPersonName
	case FieldPersonPhone:
		return StepPhoneNumber
	case FieldTaxID:
		return StepTaxID
	case FieldAmount, FieldAmountNumeric:
		return StepAmount
	case FieldNote:
		return StepNote
	}
	return StepGreeting
}

// FieldByNumber resolves the 1-based field number used in "<n>. <value>" edits.
func FieldByNumber(n int) (Field, bool) {
	if n < 1 || n > len(Fields) {
		return "", false
	}
	return Fields[n-1], true
}

// Session is the per-sender conversation state.
// It is treated as a value: handlers receive a copy and return a new one.
type Session struct {
	Step               Step             `json:"step"`
	Data               map[Field]string `json:"data"`
	EditingField       Field            `json:"editingField,omitempty"`
	WaitingForNewEntry bool             `json:"waitingForNewEntry,omitempty"`
	LastMessageAt      time.Time        `json:"lastMessageAt"`
	TimedOut           bool             `json:"timedOut,omitempty"`
}

// NewSession creates a session at the greeting step.
func NewSession(now time.Time) *Session {
	return &Session{
		Step:          StepGreeting,
		Data:          make(map[Field]string),
		LastMessageAt: now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Data = maps.Clone(s.Data)
	if c.Data == nil {
		c.Data = make(map[Field]string)
	}
	return &c
}

// Has reports whether the field has been collected.
func (s *Session) Has(f Field) bool {
	_, ok := s.Data[f]
	return ok
}

// Get returns the collected value, or "" when absent.
func (s *Session) Get(f Field) string {
	return s.Data[f]
}

// Set stores a collected value.
func (s *Session) Set(f Field, v string) {
	if s.Data == nil {
		s.Data = make(map[Field]string)
	}
	s.Data[f] = v
}

// NextMissing returns the first step whose field has not been collected,
// or StepConfirmation when every field is present.
func (s *Session) NextMissing() Step {
	for _, f := range Fields {
		if !s.Has(f) {
			return f.Step()
		}
	}
	return StepConfirmation
}

// Reset clears collected data and puts the session at the given step.
func (s *Session) Reset(step Step) {
	s.Step = step
	s.Data = make(map[Field]string)
	s.EditingField = ""
	s.WaitingForNewEntry = false
	s.TimedOut = false
}
