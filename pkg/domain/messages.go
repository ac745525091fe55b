package domain

import "strings"

// Reply templates. Placeholders in braces are filled by Render.
const (
	MsgGreeting = "Hello! Thank you for your interest in making a donation. Let's begin — what's the congregation or organization name?"
	MsgStart    = "Let's begin — what's the congregation or organization name?"

	MsgCongregationSuccess = "Got it — the congregation is {congregation}.\nNow, what's the person's full name?"
	MsgCongregationInvalid = "Hmm, I didn't catch that. Please send the congregation or organization name in words (like Bais Shalom).\nLet's try again — what's the congregation or organization name?"

	MsgNameSuccess = "Thanks! I've got the person's name as {person_name}.\nNow please send the person's phone number (10 digits, like 2124441100)."
	MsgNameInvalid = "That seems too short. Please send the person's full name, first and last — for example Moshe Cohen."

	MsgPhoneSuccess = "Thanks! I've got the person's phone number as {phone}.\nNow please send the Tax ID (9 digits, like 123456789 or 12-3456789)."
	MsgPhoneInvalid = "That doesn't look like a phone number. Please send 10 digits (for example 2124441100)."

	MsgTaxIDSuccess = "Great — the Tax ID is {tax_id}.\nNow, what's the donation amount? (e.g., 125 or $125.00)"
	MsgTaxIDInvalid = "That doesn't look like a Tax ID, a Tax ID should have 9 digits (for example 123456789).\nPlease try again — what's the Tax ID?"

	MsgAmountSuccess = "Perfect — the amount is {amount}.\nWould you like to add a note to this donation? Send the note, or say \"Skip\"."
	MsgAmountInvalid = "Please write the number as digits, like 180 or $180.00.\nWhat's the donation amount?"

	MsgNoteInvalid = "Notes can be up to 500 characters. Please send a shorter note, or say \"Skip\" to continue without one."

	MsgConfirmationSummary = "Here's what I have so far:\n1. Congregation: {congregation}\n2. Person: {person_name}\n3. Phone: {phone}\n4. Tax ID: {tax_id}\n5. Amount: {amount}\n6. Note: {note}\n\nDoes everything look right?\nPlease reply \"Yes\" to confirm — or tell me what to fix (for example, \"Change the amount\" or \"2. Moshe Cohen\")."
	MsgConfirmationSuccess = "Great! Your donation record has been saved.\nRecord ID: {record_id}\nWould you like to enter another donation? Just say \"New entry.\""
	MsgConfirmationChange  = "Please reply \"Yes\" to confirm, or tell me what to change (for example \"2. Moshe Cohen\" or \"Change the amount\")."
	MsgConfirmationBadNum  = "Please enter a number between 1-6 followed by the new value (e.g., '2. Moshe Kohn')."
	MsgSaveFailed          = "Sorry, I couldn't save your donation just now. Please reply \"Yes\" again in a moment."

	MsgWaitingPrompt   = "Please say \"New entry\" to start another donation, or \"No\" to end."
	MsgConversationEnd = "Okay, thank you for your donation! Have a great day!"

	MsgTimeout   = "Still with me? Would you like to finish entering this donation or start over?"
	MsgCancel    = "Okay, I've stopped and nothing was saved.\nYou can start again anytime by saying \"New entry.\""
	MsgMidFlow   = "You're in the middle of a donation. Reply 'Finish' to continue or 'New' to restart."
	MsgHelp      = "I'm here to help you enter donation information. Here's what you can do:\n\n• Continue with the current step\n• Say \"change [field]\" to edit something\n• Say \"start over\" to restart\n• Say \"cancel\" to stop\n• Say \"help\" for this message\n\nCurrent step: {step}"
	MsgEditMenu  = "Your current info:\n• Congregation: {congregation}\n• Name: {person_name}\n• Phone: {phone}\n• Tax ID: {tax_id}\n• Amount: {amount}\n• Note: {note}\n\nWhat would you like to change?"
	MsgEditLater = "We haven't gotten to that yet — let's finish the current question first."
	MsgUpdated   = "Got it, I've updated that."
	MsgError     = "Sorry, there was an error processing your message. Please try again."

	MsgDonorConfirmation = "Thank you {name}! Your donation of {amount} has been confirmed. We appreciate your generosity."
)

// Prompts asks for a field without acknowledging a previous answer.
var Prompts = map[Step]string{
	StepCongregation: MsgStart,
	StepPersonName:   "What's the person's full name?",
	StepPhoneNumber:  "Please send the person's phone number (10 digits, like 2124441100).",
	StepTaxID:        "Please send the Tax ID (9 digits, like 123456789 or 12-3456789).",
	StepAmount:       "What's the donation amount? (You can write 125, $125, or $125.00)",
	StepNote:         "Would you like to add a note? Send the note, or say \"Skip\".",
}

// Invalid holds the rejection message for each field.
var Invalid = map[Field]string{
	FieldCongregation: MsgCongregationInvalid,
	FieldPersonName:   MsgNameInvalid,
	FieldPersonPhone:  MsgPhoneInvalid,
	FieldTaxID:        MsgTaxIDInvalid,
	FieldAmount:       MsgAmountInvalid,
	FieldNote:         MsgNoteInvalid,
}

// Render fills template placeholders from vars.
func Render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// SummaryVars returns the placeholder values for the summary templates.
func SummaryVars(s *Session) map[string]string {
	note := s.Get(FieldNote)
	if note == "" {
		note = "(none)"
	}
	return map[string]string{
		"congregation": s.Get(FieldCongregation),
		"person_name":  s.Get(FieldPersonName),
		"phone":        s.Get(FieldPersonPhone),
		"tax_id":       s.Get(FieldTaxID),
		"amount":       s.Get(FieldAmount),
		"note":         note,
	}
}

// Summary renders the confirmation summary for a session.
func Summary(s *Session) string {
	return Render(MsgConfirmationSummary, SummaryVars(s))
}
