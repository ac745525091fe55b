package domain

import "fmt"

// Step is a position in the donation collection flow.
type Step int

const (
	StepGreeting Step = iota
	StepCongregation
	StepPersonName
	StepPhoneNumber
	StepTaxID
	StepAmount
	StepNote
	StepConfirmation
)

var stepNames = [...]string{
	"greeting",
	"congregation",
	"person_name",
	"phone_number",
	"tax_id",
	"amount",
	"note",
	"confirmation",
}

// Steps lists every step in flow order.
var Steps = []Step{
	StepGreeting,
	StepCongregation,
	StepPersonName,
	StepPhoneNumber,
	StepTaxID,
	StepAmount,
	StepNote,
	StepConfirmation,
}

func (s Step) String() string {
	if s < StepGreeting || s > StepConfirmation {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepGreeting && s <= StepConfirmation
}

// MidFlow reports whether the step is strictly between greeting and confirmation.
func (s Step) MidFlow() bool {
	return s > StepGreeting && s < StepConfirmation
}

// Next returns the step that follows s. Confirmation is terminal.
func (s Step) Next() Step {
	if s >= StepConfirmation {
		return StepConfirmation
	}
	return s + 1
}

// Field returns the field collected at this step, if any.
func (s Step) Field() (Field, bool) {
	for _, f := range Fields {
		if f.Step() == s {
			return f, true
		}
	}
	return "", false
}

// MarshalText encodes the step by name so stored sessions stay readable.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	p, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// ParseStep resolves a step name.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}
