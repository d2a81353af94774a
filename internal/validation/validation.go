package validation

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if len(strings.TrimSpace(value)) < n {
		v[field] = "too_short"
	}
}

func Email(field, value string, v Violations) {
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

// Password enforces the account password rules: at least 8 characters,
// at least one digit, at least one non-alphanumeric character.
func Password(field, value string, v Violations) {
	if len(value) < 8 {
		v[field] = "password_too_short"
		return
	}
	var digit, special bool
	for _, c := range value {
		switch {
		case unicode.IsDigit(c):
			digit = true
		case !unicode.IsLetter(c) && !unicode.IsNumber(c):
			special = true
		}
	}
	if !digit {
		v[field] = "password_needs_digit"
		return
	}
	if !special {
		v[field] = "password_needs_special_char"
	}
}

func Match(field, a, b string, v Violations) {
	if a != b {
		v[field] = "mismatch"
	}
}

// NotFuture rejects dates after today (local time, day granularity).
func NotFuture(field string, value time.Time, v Violations) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, value.Location())
	d := time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
	if d.After(today) {
		v[field] = "date_in_future"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}
