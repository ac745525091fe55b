package validator_test

import (
	"strings"
	"testing"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCongregation(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Bais Shalom", "Bais Shalom", true},
		{"  congregation   bais   shalom ", "Bais Shalom", true},
		{"the young israel", "Young Israel", true},
		{"Theodore Herzl Shul", "Theodore Herzl Shul", true},
		{"o'connor-smith", "O'Connor-Smith", true},
		{"St. Mary", "St. Mary", true},
		{"hi", "", false},
		{"Start", "", false},
		{"a", "", false},
		{"Temple 42", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := validator.Congregation(tt.in)
			if !tt.ok {
				var verr *validator.Error
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, domain.FieldCongregation, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPersonName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"John Doe", "John Doe", true},
		{"my name is jane roe", "Jane Roe", true},
		{"Hi, my name is Moshe Cohen", "Moshe Cohen", true},
		{"I'm   Ari Ben-David", "Ari Ben-David", true},
		{"Ian Smith", "Ian Smith", true},
		{"J", "", false},
		{"John", "", false},
		{"John D0e", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := validator.PersonName(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhone(t *testing.T) {
	got, err := validator.Phone("(212) 555-1234")
	require.NoError(t, err)
	assert.Equal(t, "212-555-1234", got)

	_, err = validator.Phone("+1 212 555 1234")
	assert.Error(t, err, "11 digits are rejected under the strict policy")

	_, err = validator.Phone("555-1234")
	assert.Error(t, err)
}

func TestTaxID(t *testing.T) {
	for _, in := range []string{"123456789", "12-3456789", " 12 345 6789 "} {
		got, err := validator.TaxID(in)
		require.NoError(t, err, in)
		assert.Equal(t, "12-3456789", got)
	}
	_, err := validator.TaxID("12345678")
	assert.Error(t, err)
}

func TestDonationAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		numeric float64
		ok      bool
	}{
		{"125", "$125.00", 125, true},
		{"$125.5", "$125.50", 125.5, true},
		{"$1,250.00", "$1250.00", 1250, true},
		{"5", "$5.00", 5, true},
		{"one hundred twenty five", "$125.00", 125, true},
		{"two thousand five hundred dollars", "$2500.00", 2500, true},
		{"eighteen", "$18.00", 18, true},
		{"007.5", "$7.50", 7.5, true},
		{"0.50", "$0.50", 0.5, true},
		{"99999999999999999999.99", "$99999999999999999999.99", 1e20, true},
		{"0", "", 0, false},
		{"12.345", "", 0, false},
		{"a lot", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := validator.DonationAmount(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Formatted)
			assert.InDelta(t, tt.numeric, got.Numeric, 0.001)
		})
	}
}

func TestNote(t *testing.T) {
	got, err := validator.Note("  in memory of Sarah ")
	require.NoError(t, err)
	assert.Equal(t, "in memory of Sarah", got)

	_, err = validator.Note(strings.Repeat("x", validator.MaxNoteLength+1))
	assert.Error(t, err)

	_, err = validator.Note("   ")
	assert.Error(t, err)

	assert.True(t, validator.IsSkip("Skip"))
	assert.True(t, validator.IsSkip("n/a"))
	assert.False(t, validator.IsSkip("skipping lunch"))
}

func TestIdempotence(t *testing.T) {
	cases := map[string]func(string) (string, error){
		"congregation": validator.Congregation,
		"person":       validator.PersonName,
		"phone":        validator.Phone,
		"tax":          validator.TaxID,
		"amount": func(s string) (string, error) {
			a, err := validator.DonationAmount(s)
			return a.Formatted, err
		},
	}
	inputs := map[string]string{
		"congregation": "the bais shalom",
		"person":       "my name is john doe",
		"phone":        "555.867.5309",
		"tax":          "123456789",
		"amount":       "one hundred twenty five",
	}
	for name, fn := range cases {
		first, err := fn(inputs[name])
		require.NoError(t, err, name)
		second, err := fn(first)
		require.NoError(t, err, name)
		assert.Equal(t, first, second, name)
	}
}

func TestIdempotence_StackedFillerWords(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) (string, error)
		in   string
		want string
	}{
		{"congregation article then kind", validator.Congregation, "The Church Of Hope", "Of Hope"},
		{"congregation kind then article", validator.Congregation, "temple the israel", "Israel"},
		{"person greeting then intro", validator.PersonName, "hi my name is this is jane roe", "Jane Roe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.fn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, first)

			second, err := tt.fn(first)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}

	_, err := validator.PersonName("my name is I Am Sam")
	assert.Error(t, err, "every filler prefix is stripped on the first pass")
}

func TestValidate(t *testing.T) {
	vals, err := validator.Validate(domain.FieldAmount, "$180")
	require.NoError(t, err)
	assert.Equal(t, "$180.00", vals[domain.FieldAmount])
	assert.Equal(t, "180.00", vals[domain.FieldAmountNumeric])

	vals, err = validator.Validate(domain.FieldNote, "none")
	require.NoError(t, err)
	v, ok := vals[domain.FieldNote]
	assert.True(t, ok)
	assert.Empty(t, v)

	_, err = validator.Validate(domain.FieldPersonPhone, "12")
	var verr *validator.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.FieldPersonPhone, verr.Field)
}

func TestE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2125551234", "+12125551234"},
		{"(212) 555-1234", "+12125551234"},
		{"1-212-555-1234", "+12125551234"},
		{"+1 212 555 1234", "+12125551234"},
		{"+44 20 7123 4567", "+442071234567"},
		{"0012125551234", "+12125551234"},
		{"22125551234", "+12125551234"},
	}
	for _, tt := range tests {
		got, err := validator.E164(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := validator.E164("555-1234")
	assert.Error(t, err)
}
