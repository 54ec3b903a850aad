// Package nic parses Sri Lankan National Identity Card numbers.
//
// Two layouts exist. The old format is 9 digits followed by the letter V or
// X (e.g. 901234567V); the new format is 12 digits (e.g. 199012345678).
// Both encode the holder's birth year, birth day-of-year, and gender: a
// day-of-year above 500 marks a female holder, with 500 subtracted to get
// the true day.
package nic

import (
	"fmt"
	"regexp"
	"time"
)

// Format identifies which NIC layout an input matched.
type Format string

const (
	FormatOld Format = "old" // 9 digits + V/X
	FormatNew Format = "new" // 12 digits
)

// Gender is the holder's gender as encoded in the day-of-year field.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Record is the decoded form of a NIC number. Derivation is pure: the same
// input always yields the same record.
type Record struct {
	Number      string    `json:"nic_number"`
	Format      Format    `json:"format"`
	BirthYear   int       `json:"birth_year"`
	DayOfYear   int       `json:"birth_day_of_year"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      Gender    `json:"gender"`
	Valid       bool      `json:"is_valid"`
}

var (
	oldPattern = regexp.MustCompile(`^(\d{2})(\d{3})\d{4}[VX]$`)
	newPattern = regexp.MustCompile(`^(\d{4})(\d{3})\d{5}$`)
)

// Parse decodes a raw NIC string. Input is trimmed and upper-cased before
// matching. Unmatched input returns a zero Record and ok=false; matched
// input always returns a fully populated record, with Valid=false when the
// encoded day-of-year falls outside [1,366]. Callers must check Valid
// before trusting the derived fields.
//
// Old-format birth years are 1900+yy. The scheme has no century marker, so
// holders born from 2000 onward cannot be represented in the old format;
// this mirrors the issuing convention rather than guessing a century.
func Parse(raw string) (Record, bool) {
	cleaned := normalize(raw)

	var (
		birthYear int
		dayOfYear int
		format    Format
	)

	switch {
	case oldPattern.MatchString(cleaned):
		m := oldPattern.FindStringSubmatch(cleaned)
		birthYear = 1900 + atoi(m[1])
		dayOfYear = atoi(m[2])
		format = FormatOld
	case newPattern.MatchString(cleaned):
		m := newPattern.FindStringSubmatch(cleaned)
		birthYear = atoi(m[1])
		dayOfYear = atoi(m[2])
		format = FormatNew
	default:
		return Record{}, false
	}

	gender := Male
	day := dayOfYear
	if dayOfYear > 500 {
		gender = Female
		day = dayOfYear - 500
	}

	// Jan 1 plus (day-1) days; rolls correctly through leap years.
	dob := time.Date(birthYear, time.January, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, day-1)

	return Record{
		Number:      cleaned,
		Format:      format,
		BirthYear:   birthYear,
		DayOfYear:   day,
		DateOfBirth: dob,
		Gender:      gender,
		Valid:       day >= 1 && day <= 366,
	}, true
}

// FormatForDisplay renders a NIC with its decoded gender and date of birth,
// e.g. "901234567V (Male, born 03 May 1990)". Unparseable input is returned
// unchanged.
func FormatForDisplay(raw string) string {
	rec, ok := Parse(raw)
	if !ok {
		return raw
	}
	gender := "Male"
	if rec.Gender == Female {
		gender = "Female"
	}
	return fmt.Sprintf("%s (%s, born %s)", rec.Number, gender, rec.DateOfBirth.Format("02 January 2006"))
}

func normalize(raw string) string {
	b := []byte(raw)
	// Trim ASCII whitespace and upper-case in one pass; NIC alphabets are
	// plain ASCII so no unicode handling is needed.
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	out := make([]byte, end-start)
	for i, c := range b[start:end] {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// atoi converts digit-only input already validated by the patterns above.
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
