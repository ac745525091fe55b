// Package validator normalizes and checks the raw text a sender provides for each donation field.
//
// Every validator trims its input, applies field-specific cleanup and then verifies the result.
// Validators are pure and idempotent: feeding a validator its own output returns the same value.
package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/donorline/pkg/domain"
)

// MaxNoteLength is the longest note accepted, in characters.
const MaxNoteLength = 500

// Error reports a rejected field value.
type Error struct {
	Field  domain.Field
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func reject(f domain.Field, reason string) error {
	return &Error{Field: f, Reason: reason}
}

// Amount is a validated donation amount.
type Amount struct {
	Formatted string
	Numeric   float64
}

var (
	whitespace        = regexp.MustCompile(`\s+`)
	nameCharset       = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)
	congregationNoise = regexp.MustCompile(`(?i)^(the|congregation|organization|org|church|synagogue|temple|shul)\s+`)
	personNoise       = regexp.MustCompile(`(?i)^(hi,?\s*my name is|hello,?\s*my name is|my name is|name is|i am|i'm|this is)\s+`)
	greeting          = regexp.MustCompile(`(?i)^(hi|hello|hey|good morning|good afternoon|good evening|greetings|hi there|hello there|start|begin)$`)
	nonDigit          = regexp.MustCompile(`\D`)
	nonTaxChar        = regexp.MustCompile(`[^\d-]`)
	amountNoise       = regexp.MustCompile(`[$,\s]`)
	amountUnit        = regexp.MustCompile(`(?i)\b(dollars?|usd|bucks)\b`)
	amountShape       = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	skipNote          = regexp.MustCompile(`(?i)^(skip|skip note|skip it|no note|none|n/a)$`)
)

// Congregation validates an organization name.
func Congregation(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if greeting.MatchString(s) {
		return "", reject(domain.FieldCongregation, "greeting is not a name")
	}
	s = titleCase(collapse(stripPrefixes(congregationNoise, s)))
	if len(s) < 2 {
		return "", reject(domain.FieldCongregation, "must be at least 2 characters")
	}
	if !nameCharset.MatchString(s) {
		return "", reject(domain.FieldCongregation, "only letters, spaces, hyphens, apostrophes and periods are allowed")
	}
	return s, nil
}

// PersonName validates a donor's full name.
func PersonName(raw string) (string, error) {
	s := titleCase(collapse(stripPrefixes(personNoise, strings.TrimSpace(raw))))
	if len(s) < 2 {
		return "", reject(domain.FieldPersonName, "must be at least 2 characters")
	}
	if !nameCharset.MatchString(s) {
		return "", reject(domain.FieldPersonName, "only letters, spaces, hyphens, apostrophes and periods are allowed")
	}
	if len(strings.Fields(s)) < 2 {
		return "", reject(domain.FieldPersonName, "first and last name are required")
	}
	return s, nil
}

// Phone validates a 10-digit phone number and formats it as XXX-XXX-XXXX.
func Phone(raw string) (string, error) {
	d := nonDigit.ReplaceAllString(raw, "")
	if len(d) != 10 {
		return "", reject(domain.FieldPersonPhone, "must be exactly 10 digits")
	}
	return d[:3] + "-" + d[3:6] + "-" + d[6:], nil
}

// TaxID validates a 9-digit tax ID and formats it as XX-XXXXXXX.
func TaxID(raw string) (string, error) {
	d := strings.ReplaceAll(nonTaxChar.ReplaceAllString(raw, ""), "-", "")
	if len(d) != 9 {
		return "", reject(domain.FieldTaxID, "must be 9 digits")
	}
	return d[:2] + "-" + d[2:], nil
}

// DonationAmount validates an amount written as digits or simple English number words.
func DonationAmount(raw string) (Amount, error) {
	s := strings.TrimSpace(amountUnit.ReplaceAllString(raw, ""))
	if n, ok := wordsToNumber(s); ok {
		s = strconv.Itoa(n)
	} else {
		s = amountNoise.ReplaceAllString(s, "")
	}
	if !amountShape.MatchString(s) {
		return Amount{}, reject(domain.FieldAmount, "must be a number like 125 or 125.50")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return Amount{}, reject(domain.FieldAmount, "must be greater than zero")
	}
	return Amount{Formatted: "$" + decimal2(s), Numeric: v}, nil
}

// decimal2 renders a validated amount string with exactly two decimals
// without going through float64.
func decimal2(s string) string {
	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	return whole + "." + (frac + "00")[:2]
}

// Note validates an optional free-text note.
func Note(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(s)
	if n < 1 || n > MaxNoteLength {
		return "", reject(domain.FieldNote, fmt.Sprintf("must be 1-%d characters", MaxNoteLength))
	}
	return s, nil
}

// IsSkip reports whether the input asks to skip the note.
func IsSkip(raw string) bool {
	return skipNote.MatchString(strings.TrimSpace(raw))
}

// Validate runs the validator for field and returns the values to store.
// Amount produces both the formatted and the numeric value.
func Validate(field domain.Field, raw string) (map[domain.Field]string, error) {
	switch field {
	case domain.FieldCongregation:
		return single(field)(Congregation(raw))
	case domain.FieldPersonName:
		return single(field)(PersonName(raw))
	case domain.FieldPersonPhone:
		return single(field)(Phone(raw))
	case domain.FieldTaxID:
		return single(field)(TaxID(raw))
	case domain.FieldAmount:
		a, err := DonationAmount(raw)
		if err != nil {
			return nil, err
		}
		return map[domain.Field]string{
			domain.FieldAmount:        a.Formatted,
			domain.FieldAmountNumeric: strings.TrimPrefix(a.Formatted, "$"),
		}, nil
	case domain.FieldNote:
		if IsSkip(raw) {
			return map[domain.Field]string{domain.FieldNote: ""}, nil
		}
		return single(field)(Note(raw))
	}
	return nil, reject(field, "unknown field")
}

func single(f domain.Field) func(string, error) (map[domain.Field]string, error) {
	return func(v string, err error) (map[domain.Field]string, error) {
		if err != nil {
			return nil, err
		}
		return map[domain.Field]string{f: v}, nil
	}
}

// stripPrefixes removes leading filler words until none is left.
func stripPrefixes(re *regexp.Regexp, s string) string {
	for {
		next := re.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// titleCase upper-cases the first letter of each word, leaving the rest untouched.
// A word starts after any character that is not a letter, digit or underscore.
func titleCase(s string) string {
	b := []byte(s)
	prevWord := false
	for i, c := range b {
		isWord := c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if isWord && !prevWord && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		prevWord = isWord
	}
	return string(b)
}

var smallNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var scales = map[string]int{
	"thousand": 1000,
	"million":  1000000,
}

// wordsToNumber converts phrases like "one hundred twenty five" to 125.
// It reports false when no number word is present.
func wordsToNumber(s string) (int, bool) {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == ',' || r == '\t'
	})
	total, current, found := 0, 0, false
	for _, w := range words {
		switch {
		case w == "and" || w == "a":
			continue
		case smallNumbers[w] > 0:
			current += smallNumbers[w]
			found = true
		case w == "hundred":
			if current == 0 {
				current = 1
			}
			current *= 100
			found = true
		case scales[w] > 0:
			if current == 0 {
				current = 1
			}
			total += current * scales[w]
			current = 0
			found = true
		default:
			return 0, false
		}
	}
	if !found {
		return 0, false
	}
	return total + current, true
}

var elevenDigitsUS = regexp.MustCompile(`1\d{10}`)

// E164 normalizes a US phone number in any common format to +1XXXXXXXXXX.
// A leading + keeps other country codes as given.
func E164(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	plus := strings.HasPrefix(s, "+")
	d := nonDigit.ReplaceAllString(s, "")
	switch {
	case len(d) < 10:
		return "", reject(domain.FieldPersonPhone, "must contain at least 10 digits")
	case len(d) == 10:
		return "+1" + d, nil
	case len(d) == 11 && d[0] == '1':
		return "+" + d, nil
	case plus:
		return "+" + d, nil
	case len(d) > 11:
		if m := elevenDigitsUS.FindString(d); m != "" {
			return "+" + m, nil
		}
	}
	return "+1" + d[len(d)-10:], nil
}
