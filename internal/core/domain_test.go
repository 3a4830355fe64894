package core

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDriverID(t *testing.T) {
	cases := []struct {
		id  string
		err error
	}{
		{"drv-1", nil},
		{"6f1c2d3e-0000-4000-8000-000000000001", nil},
		{"", ErrMissingDriverID},
		{"   ", ErrMissingDriverID},
		{"bad\x00id", ErrInvalidDriverID},
		{strings.Repeat("x", 129), ErrInvalidDriverID},
	}
	for i, tc := range cases {
		if err := ValidateDriverID(tc.id); err != tc.err {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestShiftDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	before := start.Add(-time.Hour)

	cases := []struct {
		s    Shift
		want time.Duration
		ok   bool
		open bool
	}{
		{Shift{StartTime: &start, EndTime: &end}, 4 * time.Hour, true, false},
		{Shift{StartTime: &start}, 0, false, true},
		{Shift{EndTime: &end}, 0, false, false},
		{Shift{}, 0, false, false},
		{Shift{StartTime: &start, EndTime: &before}, 0, false, false},
	}
	for i, tc := range cases {
		d, ok := tc.s.Duration()
		if d != tc.want || ok != tc.ok {
			t.Fatalf("case %d expected (%v,%v), got (%v,%v)", i, tc.want, tc.ok, d, ok)
		}
		if tc.s.IsOpen() != tc.open {
			t.Fatalf("case %d expected open=%v", i, tc.open)
		}
	}
}
