package runtime

import (
	"strconv"

	"github.com/aretw0/donorline/pkg/command"
	"github.com/aretw0/donorline/pkg/domain"
)

// handleGreeting opens the conversation at greeting. Mid-flow it asks the
// sender to finish or restart, and at confirmation it shows the summary again.
func handleGreeting(s *domain.Session) Outcome {
	switch {
	case s.Step == domain.StepGreeting:
		s.Step = domain.StepCongregation
		return keep(s, domain.MsgGreeting)
	case s.Step == domain.StepConfirmation:
		return keep(s, domain.Summary(s))
	}
	return keep(s, domain.MsgMidFlow)
}

// startFresh replaces whatever the sender had with an empty session at congregation.
func startFresh(t turn) Outcome {
	s := domain.NewSession(t.now)
	s.Step = domain.StepCongregation
	return keep(s, domain.MsgStart)
}

// handleChange sends the sender back to a field they already answered.
func handleChange(s *domain.Session, target string) Outcome {
	f, ok := command.EditTarget(target)
	if !ok {
		return keep(s, domain.Render(domain.MsgEditMenu, domain.SummaryVars(s)))
	}
	if !s.Has(f) {
		if f.Step() == s.Step {
			return keep(s, prompt(s))
		}
		return keep(s, domain.MsgEditLater+"\n"+prompt(s))
	}
	s.Step = f.Step()
	s.EditingField = f
	return keep(s, domain.Prompts[s.Step])
}

func handleHelp(s *domain.Session) Outcome {
	return keep(s, domain.Render(domain.MsgHelp, map[string]string{
		"step": strconv.Itoa(int(s.Step)),
	}))
}

// handleWaiting runs after a donation was saved. Anything but a new entry or
// a goodbye is answered with the same question, so a repeated "Yes" is harmless.
func handleWaiting(s *domain.Session, cmd command.Result, t turn) Outcome {
	switch cmd.Kind {
	case command.New:
		return startFresh(t)
	case command.EndConversation:
		return Outcome{Reply: domain.MsgConversationEnd}
	}
	return keep(s, domain.MsgWaitingPrompt)
}
