package runtime

import (
	"strings"

	"github.com/aretw0/donorline/pkg/command"
	"github.com/aretw0/donorline/pkg/domain"
)

// dispatch routes one message to a command or step handler.
// s is a private copy owned by the caller and may be modified.
//
// Precedence:
//  1. While waiting for a new entry only New and EndConversation are honoured.
//  2. Explicit commands, in classifier order.
//  3. At greeting, ambiguous text gets the greeting; anything else is
//     taken as the congregation answer.
//  4. Mid-flow, ambiguous text gets the "Finish or New" guard.
//  5. The handler for the current step.
func dispatch(s *domain.Session, text string, t turn) Outcome {
	input := strings.TrimSpace(text)
	cmd := command.Classify(input, s.WaitingForNewEntry)

	if s.WaitingForNewEntry {
		out := handleWaiting(s, cmd, t)
		out.Command = cmd.Kind
		return out
	}

	if cmd.Kind != command.None {
		out := handleCommand(s, cmd, t)
		out.Command = cmd.Kind
		return out
	}

	switch {
	case s.Step == domain.StepGreeting:
		if command.IsAmbiguous(input) {
			return handleGreeting(s)
		}
		s.Step = domain.StepCongregation
	case s.Step.MidFlow() && command.IsAmbiguous(input):
		return keep(s, domain.MsgMidFlow)
	}

	if s.Step == domain.StepConfirmation {
		return handleConfirmation(s, input, t)
	}
	return handleField(s, input)
}

func handleCommand(s *domain.Session, cmd command.Result, t turn) Outcome {
	switch cmd.Kind {
	case command.Greeting:
		return handleGreeting(s)
	case command.Cancel:
		return Outcome{Reply: domain.MsgCancel}
	case command.StartOver, command.New:
		return startFresh(t)
	case command.Change:
		return handleChange(s, cmd.Target)
	case command.Finish:
		return keep(s, prompt(s))
	case command.Help:
		return handleHelp(s)
	}
	return keep(s, prompt(s))
}

// prompt re-asks for whatever the session is waiting on.
func prompt(s *domain.Session) string {
	switch s.Step {
	case domain.StepGreeting:
		return domain.MsgStart
	case domain.StepConfirmation:
		return domain.Summary(s)
	}
	return domain.Prompts[s.Step]
}
