package domain

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.50", 1250, false},
		{"12.5", 1250, false},
		{"7", 700, false},
		{"0", 0, false},
		{"0.99", 99, false},
		{" 3.25 ", 325, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		{"-0.50", 0, true},
		{"1.999", 0, true},
		{"12,50", 0, true},
		{".50", 0, true},
		{"1.x", 0, true},
		{"1.-1", 0, true},
		{"1.+5", 0, true},
		{"0.-9", 0, true},
		{"+5", 0, true},
		{"+1.50", 0, true},
	}
	for _, c := range cases {
		got, err := ParsePrice(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParsePrice(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePrice(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParsePrice(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(1250); got != "12.50" {
		t.Errorf("FormatCents(1250) = %q", got)
	}
	if got := FormatCents(5); got != "0.05" {
		t.Errorf("FormatCents(5) = %q", got)
	}
	if got := FormatCents(0); got != "0.00" {
		t.Errorf("FormatCents(0) = %q", got)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "delivered", "OPEN", "out_for_delivery"} {
		if _, err := ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q): expected error", s)
		}
	}
	for _, s := range AssignableStatuses {
		if _, err := ParseStatus(string(s)); err != nil {
			t.Errorf("ParseStatus(%q): %v", s, err)
		}
	}
}
