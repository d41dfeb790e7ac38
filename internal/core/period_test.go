package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	start := NewDate(2023, 1, 10)
	end := NewDate(2023, 2, 5)

	cases := []struct {
		name       string
		ref        time.Time
		start, end *Date
		want       Period
	}{
		{
			name: "default month",
			ref:  time.Date(2023, 9, 15, 13, 45, 0, 0, time.UTC),
			want: Period{Start: NewDate(2023, 9, 1), End: NewDate(2023, 9, 30)},
		},
		{
			name: "february leap year",
			ref:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			want: Period{Start: NewDate(2024, 2, 1), End: NewDate(2024, 2, 29)},
		},
		{
			name: "december",
			ref:  time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
			want: Period{Start: NewDate(2023, 12, 1), End: NewDate(2023, 12, 31)},
		},
		{
			name:  "explicit bounds verbatim",
			ref:   time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC),
			start: &start,
			end:   &end,
			want:  Period{Start: start, End: end},
		},
		{
			name:  "only start falls back to month",
			ref:   time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC),
			start: &start,
			want:  Period{Start: NewDate(2023, 9, 1), End: NewDate(2023, 9, 30)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePeriod(tc.ref, tc.start, tc.end)
			if !got.Start.Equal(tc.want.Start.Time) || !got.End.Equal(tc.want.End.Time) {
				t.Fatalf("expected %s..%s, got %s..%s", tc.want.Start, tc.want.End, got.Start, got.End)
			}
			again := ResolvePeriod(tc.ref, tc.start, tc.end)
			if again != got {
				t.Fatalf("resolution is not deterministic")
			}
		})
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{Start: NewDate(2023, 9, 1), End: NewDate(2023, 9, 30)}
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2023, 9, 1), true},
		{NewDate(2023, 9, 30), true},
		{NewDate(2023, 8, 31), false},
		{NewDate(2023, 10, 1), false},
	}
	for i, tc := range cases {
		if p.Contains(tc.d) != tc.in {
			t.Fatalf("case %d expected contains=%v for %s", i, tc.in, tc.d)
		}
	}
	if err := (Period{Start: NewDate(2023, 9, 2), End: NewDate(2023, 9, 1)}).Validate(); err == nil {
		t.Fatalf("expected error for inverted period")
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-09-15", "2023-09-15", true},
		{"2023-09-15T10:00:00Z", "2023-09-15", true},
		{" 2024-02-29 ", "2024-02-29", true},
		{"15/09/2023", "", false},
		{"2023-02-30", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.String() != tc.want {
				t.Fatalf("case %d expected %s, got %s (err=%v)", i, tc.want, d, err)
			}
		} else if err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	var holder struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2023-09-05"}`), &holder); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, _ := json.Marshal(holder)
	if string(b) != `{"date":"2023-09-05"}` {
		t.Fatalf("unexpected json %s", b)
	}
}
