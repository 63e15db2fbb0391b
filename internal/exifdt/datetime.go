package exifdt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // named-zone offsets must resolve on hosts without a system tz database
)

// DateOrTime is the closed set of temporal value kinds. The unexported
// method keeps the set closed so type switches in the write encoder and
// interchange codec cover every case.
type DateOrTime interface {
	// ToExifString renders the value in exiftool's native write syntax.
	ToExifString() string
	isDateOrTime()
}

func (ExifDate) isDateOrTime()     {}
func (ExifTime) isDateOrTime()     {}
func (ExifDateTime) isDateOrTime() {}

// IsDateOrTime reports whether v is one of the three temporal kinds,
// by value or by pointer.
func IsDateOrTime(v any) bool {
	switch v.(type) {
	case ExifDate, ExifTime, ExifDateTime, *ExifDate, *ExifTime, *ExifDateTime:
		return true
	default:
		return false
	}
}

var monthsByName = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	"january": 1, "february": 2, "march": 3, "april": 4,
	"june": 6, "july": 7, "august": 8, "september": 9,
	"october": 10, "november": 11, "december": 12,
}

func monthNumber(name string) (int, bool) {
	m, ok := monthsByName[strings.ToLower(name)]
	return m, ok
}

// validDate reports whether y/m/d is a real calendar date. Year zero is a
// common camera sentinel and is always rejected.
func validDate(y, m, d int) bool {
	if y < 1 || m < 1 || m > 12 || d < 1 || d > 31 {
		return false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && int(t.Month()) == m && t.Day() == d
}

func validClock(h, mi, s int) bool {
	return h >= 0 && h <= 23 && mi >= 0 && mi <= 59 && s >= 0 && s <= 59
}

// fractionMillis converts a fractional-second digit string (without the dot)
// to whole milliseconds, truncating extra precision.
func fractionMillis(frac string) int {
	if frac == "" {
		return 0
	}
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.Atoi(frac[:3])
	return ms
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// --- Fixed-offset zone labels ---

// OffsetZoneName renders a fixed offset in minutes as a zone label:
// 0 is "UTC", whole hours are "UTC±HH", others "UTC±HH:MM".
func OffsetZoneName(minutes int) string {
	if minutes == 0 {
		return "UTC"
	}
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("UTC%s%02d", sign, minutes/60)
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, minutes/60, minutes%60)
}

var reOffsetZone = regexp.MustCompile(`^UTC([+-])(\d{1,2})(?::(\d{2}))?$`)

// ZoneOffsetMinutes resolves a zone identifier to its offset from UTC, in
// minutes, at the given local wall-clock instant. The zone may be "UTC", a
// "UTC±HH[:MM]" label, or an IANA name (resolved DST-aware). Returns false
// when the zone cannot be resolved.
func ZoneOffsetMinutes(zone string, y, mo, d, h, mi, s int) (int, bool) {
	if zone == "" {
		return 0, false
	}
	if zone == "UTC" || zone == "Z" {
		return 0, true
	}
	if m := reOffsetZone.FindStringSubmatch(zone); m != nil {
		minutes := atoi(m[2])*60 + atoi(m[3])
		if m[1] == "-" {
			minutes = -minutes
		}
		return minutes, true
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return 0, false
	}
	_, secs := time.Date(y, time.Month(mo), d, h, mi, s, 0, loc).Zone()
	return secs / 60, true
}

// parseOffsetSuffix parses a trailing "Z" / "±HH" / "±HH:MM" / "±HHMM"
// offset capture into minutes.
func parseOffsetSuffix(s string) (minutes int, ok bool) {
	if s == "" {
		return 0, false
	}
	if s == "Z" {
		return 0, true
	}
	neg := s[0] == '-'
	s = strings.ReplaceAll(s[1:], ":", "")
	if len(s) != 2 && len(s) != 4 {
		return 0, false
	}
	minutes = atoi(s[:2]) * 60
	if len(s) == 4 {
		minutes += atoi(s[2:])
	}
	if neg {
		minutes = -minutes
	}
	return minutes, true
}
