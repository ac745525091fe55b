package runtime

import (
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/validator"
)

var success = map[domain.Field]string{
	domain.FieldCongregation: domain.MsgCongregationSuccess,
	domain.FieldPersonName:   domain.MsgNameSuccess,
	domain.FieldPersonPhone:  domain.MsgPhoneSuccess,
	domain.FieldTaxID:        domain.MsgTaxIDSuccess,
	domain.FieldAmount:       domain.MsgAmountSuccess,
}

// handleField validates the answer for the current step.
// A rejected answer leaves the session untouched.
func handleField(s *domain.Session, input string) Outcome {
	f, ok := s.Step.Field()
	if !ok {
		return keep(s, prompt(s))
	}

	vals, err := validator.Validate(f, input)
	if err != nil {
		return keep(s, domain.Invalid[f])
	}
	for k, v := range vals {
		s.Set(k, v)
	}

	if s.EditingField == f {
		s.EditingField = ""
		s.Step = s.NextMissing()
		if s.Step == domain.StepConfirmation {
			return keep(s, domain.Summary(s))
		}
		return keep(s, domain.MsgUpdated+"\n"+domain.Prompts[s.Step])
	}

	s.EditingField = ""
	s.Step = s.Step.Next()
	if s.Step == domain.StepConfirmation {
		return keep(s, domain.Summary(s))
	}
	return keep(s, domain.Render(success[f], domain.SummaryVars(s)))
}
