package validation

import (
	"testing"
	"time"
)

func TestPassword(t *testing.T) {
	cases := []struct {
		password string
		want     string // expected violation, empty means valid
	}{
		{"str0ng-pass!", ""},
		{"sh0rt!", "password_too_short"},
		{"no-digits-here!", "password_needs_digit"},
		{"nospecial123", "password_needs_special_char"},
	}
	for _, tc := range cases {
		v := Violations{}
		Password("password", tc.password, v)
		if tc.want == "" {
			if !v.Empty() {
				t.Errorf("Password(%q): unexpected violation %v", tc.password, v)
			}
			continue
		}
		if v["password"] != tc.want {
			t.Errorf("Password(%q): got %q want %q", tc.password, v["password"], tc.want)
		}
	}
}

func TestNotFuture(t *testing.T) {
	v := Violations{}
	NotFuture("date", time.Now(), v)
	if !v.Empty() {
		t.Errorf("today should be allowed, got %v", v)
	}

	v = Violations{}
	NotFuture("date", time.Now().AddDate(0, 0, -30), v)
	if !v.Empty() {
		t.Errorf("past dates should be allowed, got %v", v)
	}

	v = Violations{}
	NotFuture("date", time.Now().AddDate(0, 0, 1), v)
	if v["date"] != "date_in_future" {
		t.Errorf("tomorrow should be rejected, got %v", v)
	}
}

func TestEmail(t *testing.T) {
	v := Violations{}
	Email("email", "caddy@club.test", v)
	if !v.Empty() {
		t.Errorf("valid address rejected: %v", v)
	}
	v = Violations{}
	Email("email", "not-an-email", v)
	if v["email"] != "invalid_email" {
		t.Errorf("expected invalid_email, got %v", v)
	}
}

func TestMinLen(t *testing.T) {
	v := Violations{}
	MinLen("username", "  al  ", 4, v)
	if v["username"] != "too_short" {
		t.Errorf("whitespace should not count toward length, got %v", v)
	}
}
