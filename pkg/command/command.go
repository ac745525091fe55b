// Package command classifies raw SMS text into conversation commands.
//
// Classification is an ordered table of (kind, matcher) rules evaluated top to bottom;
// the first match wins. The order is fixed and does not depend on the current step.
package command

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/donorline/pkg/domain"
)

// Kind is the category of a classified input.
type Kind int

const (
	None Kind = iota
	Greeting
	Cancel
	StartOver
	New
	Change
	Finish
	Help
	EndConversation
	ConfirmYes
	ConfirmNoOrEdit
)

var kindNames = map[Kind]string{
	None:            "none",
	Greeting:        "greeting",
	Cancel:          "cancel",
	StartOver:       "start_over",
	New:             "new",
	Change:          "change",
	Finish:          "finish",
	Help:            "help",
	EndConversation: "end_conversation",
	ConfirmYes:      "confirm_yes",
	ConfirmNoOrEdit: "confirm_no_or_edit",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Result is a classified input. Target holds the text after a change verb.
type Result struct {
	Kind   Kind
	Target string
}

type rule struct {
	kind  Kind
	match func(string) (string, bool)
}

func anchored(pattern string) func(string) (string, bool) {
	re := regexp.MustCompile(`(?i)^(` + pattern + `)$`)
	return func(s string) (string, bool) {
		return "", re.MatchString(s)
	}
}

var (
	greetingWords = `hi|hello|hey|good morning|good afternoon|good evening|greetings|hi there|hello there`
	cancelWords   = `cancel|stop|quit|end`
	newWords      = `new|new entry|start over|restart`

	changePrefix = regexp.MustCompile(`(?i)^(change|edit|fix|update|modify)\s+(.*)$`)
	trailing     = regexp.MustCompile(`[.!?]+$`)
)

// rules is evaluated in order while a conversation is active.
var rules = []rule{
	{Greeting, anchored(greetingWords)},
	{Cancel, anchored(cancelWords)},
	{StartOver, anchored(`start over|restart|begin again|new entry|start again`)},
	{Change, func(s string) (string, bool) {
		m := changePrefix.FindStringSubmatch(s)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[2]), true
	}},
	{Finish, anchored(`finish|continue|complete`)},
	{New, anchored(newWords)},
	{Help, func(s string) (string, bool) {
		return "", strings.Contains(strings.ToLower(s), "help")
	}},
}

// waitingRules is evaluated after a donation has been saved and the
// sender is asked whether to start another.
var waitingRules = []rule{
	{New, anchored(newWords + `|start again|begin again`)},
	{EndConversation, anchored(`no|nope|n|thanks|thank you|that's all|done|finished|goodbye|bye|` + cancelWords)},
}

// normalize trims whitespace and trailing punctuation.
func normalize(text string) string {
	return strings.TrimSpace(trailing.ReplaceAllString(strings.TrimSpace(text), ""))
}

func classify(table []rule, text string) Result {
	s := normalize(text)
	for _, r := range table {
		if target, ok := r.match(s); ok {
			return Result{Kind: r.kind, Target: target}
		}
	}
	return Result{Kind: None}
}

// Classify maps text to a command. While waiting for a new entry only
// New and EndConversation are recognized.
func Classify(text string, waiting bool) Result {
	if waiting {
		return classify(waitingRules, text)
	}
	return classify(rules, text)
}

var (
	affirmative = regexp.MustCompile(`(?i)^(yes|yeah|yep|y|correct|right|ok|okay|confirm|that's correct|looks good|perfect|sounds good)\b`)
	negative    = regexp.MustCompile(`(?i)^(no|nope|n|incorrect|wrong|fix|change)\b`)
	numbered    = regexp.MustCompile(`^(\d+)\s*(?:[.):-]\s*(\D.*)|[.):-]?\s+(.+))$`)
)

// ClassifyConfirmation sub-classifies a reply to the confirmation summary.
func ClassifyConfirmation(text string) Kind {
	s := strings.TrimSpace(text)
	switch {
	case affirmative.MatchString(s):
		return ConfirmYes
	case negative.MatchString(s):
		return ConfirmNoOrEdit
	}
	if _, _, ok := ParseNumberedEdit(s); ok {
		return ConfirmNoOrEdit
	}
	return None
}

// ParseNumberedEdit parses "<n>. <value>". The space after the separator is
// optional unless the value starts with a digit, so "5.00" is not an edit.
// The number is not range-checked.
func ParseNumberedEdit(text string) (int, string, bool) {
	m := numbered.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	value := m[2]
	if value == "" {
		value = m[3]
	}
	return n, strings.TrimSpace(value), true
}

var targets = []struct {
	field domain.Field
	re    *regexp.Regexp
}{
	{domain.FieldCongregation, regexp.MustCompile(`(?i)\b(congregation|organization)`)},
	{domain.FieldPersonName, regexp.MustCompile(`(?i)\b(name|person)`)},
	{domain.FieldPersonPhone, regexp.MustCompile(`(?i)\b(phone|number)`)},
	{domain.FieldTaxID, regexp.MustCompile(`(?i)\b(tax|id)\b`)},
	{domain.FieldAmount, regexp.MustCompile(`(?i)\b(amount|donation)`)},
	{domain.FieldNote, regexp.MustCompile(`(?i)\bnote`)},
}

// EditTarget resolves the field named after a change verb, either by
// keyword ("the amount") or by number ("2").
func EditTarget(target string) (domain.Field, bool) {
	t := normalize(target)
	if n, err := strconv.Atoi(t); err == nil {
		return domain.FieldByNumber(n)
	}
	for _, c := range targets {
		if c.re.MatchString(t) {
			return c.field, true
		}
	}
	return "", false
}

var ambiguous = regexp.MustCompile(`(?i)^(` + greetingWords + `|start|begin|ok|yes|no|maybe|sure|alright)$`)

// IsAmbiguous reports whether text is too vague to be a field answer: a bare
// greeting, a filler word, or fewer than 3 characters without a digit.
func IsAmbiguous(text string) bool {
	s := normalize(text)
	if ambiguous.MatchString(s) {
		return true
	}
	if len([]rune(s)) >= 3 {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsDigit)
}
