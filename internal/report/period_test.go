package report

import (
	"testing"
	"time"
)

func TestParsePeriod_Keywords(t *testing.T) {
	now := time.Date(2025, 5, 15, 14, 30, 0, 0, time.UTC)
	day := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		text string
		from time.Time
		to   time.Time
	}{
		{"today", day, day.AddDate(0, 0, 1)},
		{"Yesterday", day.AddDate(0, 0, -1), day},
		{"week", day.AddDate(0, 0, -7), day.AddDate(0, 0, 1)},
		{"month", day.AddDate(0, -1, 0), day.AddDate(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			from, to, err := ParsePeriod(tt.text, now)
			if err != nil {
				t.Fatalf("ParsePeriod(%q): %v", tt.text, err)
			}
			if !from.Equal(tt.from) || !to.Equal(tt.to) {
				t.Fatalf("got [%v, %v), want [%v, %v)", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestParsePeriod_ExplicitRange(t *testing.T) {
	now := time.Date(2025, 5, 15, 14, 30, 0, 0, time.UTC)

	from, to, err := ParsePeriod("01.05.2025-10.05.2025", now)
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	if from.Day() != 1 || from.Month() != time.May {
		t.Fatalf("from = %v", from)
	}
	// End date inclusive: the interval runs to the 11th exclusive.
	if to.Day() != 11 {
		t.Fatalf("to = %v", to)
	}
}

func TestParsePeriod_Invalid(t *testing.T) {
	now := time.Now()
	for _, text := range []string{"", "tomorrow", "2025-05-01", "10.05.2025-01.05.2025", "01.05.2025"} {
		if _, _, err := ParsePeriod(text, now); err == nil {
			t.Errorf("ParsePeriod(%q): expected error", text)
		}
	}
}
