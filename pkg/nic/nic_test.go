package nic

import (
	"testing"
	"time"
)

func TestParse_OldFormatMale(t *testing.T) {
	rec, ok := Parse("900450000V")
	if !ok {
		t.Fatal("expected match")
	}
	if rec.Format != FormatOld {
		t.Errorf("format = %q, want old", rec.Format)
	}
	if rec.BirthYear != 1990 {
		t.Errorf("birth year = %d, want 1990", rec.BirthYear)
	}
	if rec.DayOfYear != 45 {
		t.Errorf("day of year = %d, want 45", rec.DayOfYear)
	}
	if rec.Gender != Male {
		t.Errorf("gender = %q, want male", rec.Gender)
	}
	want := time.Date(1990, time.February, 14, 0, 0, 0, 0, time.UTC)
	if !rec.DateOfBirth.Equal(want) {
		t.Errorf("dob = %v, want %v", rec.DateOfBirth, want)
	}
	if !rec.Valid {
		t.Error("expected valid")
	}
}

func TestParse_FemaleOffset(t *testing.T) {
	// Day 45 encoded as 545.
	rec, ok := Parse("905450000X")
	if !ok {
		t.Fatal("expected match")
	}
	if rec.Gender != Female {
		t.Errorf("gender = %q, want female", rec.Gender)
	}
	if rec.DayOfYear != 45 {
		t.Errorf("day of year = %d, want 45", rec.DayOfYear)
	}
	if !rec.Valid {
		t.Error("expected valid")
	}
}

func TestParse_NewFormat(t *testing.T) {
	rec, ok := Parse("199012345678")
	if !ok {
		t.Fatal("expected match")
	}
	if rec.Format != FormatNew {
		t.Errorf("format = %q, want new", rec.Format)
	}
	if rec.BirthYear != 1990 {
		t.Errorf("birth year = %d, want 1990", rec.BirthYear)
	}
	if rec.DayOfYear != 123 {
		t.Errorf("day of year = %d, want 123", rec.DayOfYear)
	}
	if rec.Gender != Male {
		t.Errorf("gender = %q, want male", rec.Gender)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	// Synthetic numbers built from (year, day, gender) must decode back to
	// the same triple in both formats.
	cases := []struct {
		input  string
		year   int
		day    int
		gender Gender
	}{
		{"650010000V", 1965, 1, Male},
		{"653660000V", 1965, 366, Male},
		{"655010000V", 1965, 1, Female},
		{"658660000X", 1965, 366, Female},
		{"200400112345", 2004, 1, Male},
		{"200486612345", 2004, 366, Female},
	}
	for _, tc := range cases {
		rec, ok := Parse(tc.input)
		if !ok {
			t.Errorf("Parse(%q): no match", tc.input)
			continue
		}
		if rec.BirthYear != tc.year || rec.DayOfYear != tc.day || rec.Gender != tc.gender {
			t.Errorf("Parse(%q) = (%d, %d, %s), want (%d, %d, %s)",
				tc.input, rec.BirthYear, rec.DayOfYear, rec.Gender, tc.year, tc.day, tc.gender)
		}
		if !rec.Valid {
			t.Errorf("Parse(%q): expected valid", tc.input)
		}
	}
}

func TestParse_LeapYear(t *testing.T) {
	// Day 60 of 1992 (leap) is Feb 29; day 60 of 1990 is Mar 1.
	rec, _ := Parse("920600000V")
	if got := rec.DateOfBirth; got.Month() != time.February || got.Day() != 29 {
		t.Errorf("1992 day 60 = %v, want Feb 29", got)
	}
	rec, _ = Parse("900600000V")
	if got := rec.DateOfBirth; got.Month() != time.March || got.Day() != 1 {
		t.Errorf("1990 day 60 = %v, want Mar 1", got)
	}
}

func TestParse_InvalidDay(t *testing.T) {
	// Day 400 matches the old pattern but is not a real day-of-year
	// (male range stops at 366, female starts at 501).
	rec, ok := Parse("904000000V")
	if !ok {
		t.Fatal("expected best-effort record")
	}
	if rec.Valid {
		t.Error("day 400 should be invalid")
	}
	if rec.Gender != Male || rec.DayOfYear != 400 {
		t.Errorf("best-effort fields = (%s, %d)", rec.Gender, rec.DayOfYear)
	}
}

func TestParse_NoMatch(t *testing.T) {
	for _, input := range []string{"", "ABC123", "12345", "900450000Z", "90045000VV", "1990123456789"} {
		rec, ok := Parse(input)
		if ok {
			t.Errorf("Parse(%q): unexpected match", input)
		}
		if rec != (Record{}) {
			t.Errorf("Parse(%q): non-zero record on no match", input)
		}
	}
}

func TestParse_NormalizesInput(t *testing.T) {
	rec, ok := Parse("  900450000v\n")
	if !ok {
		t.Fatal("expected match after trim/upper")
	}
	if rec.Number != "900450000V" {
		t.Errorf("number = %q", rec.Number)
	}
}

func TestFormatForDisplay(t *testing.T) {
	got := FormatForDisplay("905450000X")
	want := "905450000X (Female, born 14 February 1990)"
	if got != want {
		t.Errorf("FormatForDisplay = %q, want %q", got, want)
	}
	if got := FormatForDisplay("garbage"); got != "garbage" {
		t.Errorf("unparseable input should pass through, got %q", got)
	}
}
