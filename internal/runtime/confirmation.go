package runtime

import (
	"github.com/aretw0/donorline/pkg/command"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/validator"
)

// handleConfirmation decides on the summary: save it, patch one numbered
// field in place, or ask again.
func handleConfirmation(s *domain.Session, input string, t turn) Outcome {
	if command.ClassifyConfirmation(input) == command.ConfirmYes {
		id := t.recordID(t.now)
		rec := domain.NewDonationRecord(id, s, t.now)

		next := s.Clone()
		next.Reset(domain.StepGreeting)
		next.WaitingForNewEntry = true
		return Outcome{
			Session: next,
			Reply:   domain.Render(domain.MsgConfirmationSuccess, map[string]string{"record_id": id}),
			Record:  &rec,
		}
	}

	if n, value, ok := command.ParseNumberedEdit(input); ok {
		f, ok := domain.FieldByNumber(n)
		if !ok {
			return keep(s, domain.MsgConfirmationBadNum)
		}
		vals, err := validator.Validate(f, value)
		if err != nil {
			return keep(s, domain.Invalid[f])
		}
		for k, v := range vals {
			s.Set(k, v)
		}
		return keep(s, domain.Summary(s))
	}

	return keep(s, domain.MsgConfirmationChange)
}
