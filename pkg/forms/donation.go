package forms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// plain digits with up to two decimals; no sign, exponent or grouping
var amountRE = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// MaxDonation is the largest single donation accepted, in cents.
const MaxDonation int64 = 100_000_000

// DonationForm takes an amount in currency units ("12.50") and an optional message.
type DonationForm struct {
	Amount  string `form:"amount" validate:"required"`
	Message string `form:"message" validate:"max=280"`

	cents int64
}

func (f *DonationForm) Validate() FieldErrors {
	f.Amount = strings.TrimSpace(f.Amount)
	f.Message = strings.TrimSpace(f.Message)
	errs := check(f)
	if f.Amount == "" {
		return errs
	}
	cents, err := ParseAmount(f.Amount)
	switch {
	case err != nil:
		errs.Add("amount", "Enter an amount like 10 or 12.50.")
	case cents <= 0:
		errs.Add("amount", "Ensure this value is greater than 0.")
	case cents > MaxDonation:
		errs.Add("amount", fmt.Sprintf("Ensure this value is at most %s.", FormatAmount(MaxDonation)))
	default:
		f.cents = cents
	}
	return errs
}

// Cents returns the validated amount in the smallest currency unit.
func (f DonationForm) Cents() int64 { return f.cents }

// ParseAmount converts "12", "12.5" or "12.50" to cents. Thousands
// separators, signs and more than two decimals are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !amountRE.MatchString(s) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := d.Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(MaxDonation * 100)) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return cents.IntPart(), nil
}

// FormatAmount renders cents as "1234.50".
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
