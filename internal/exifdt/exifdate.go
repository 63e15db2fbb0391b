package exifdt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExifDate is a calendar date with no time component, as rendered by
// exiftool for tags like GPSDateStamp or ReleaseDate.
type ExifDate struct {
	Year     int
	Month    int
	Day      int
	RawValue string
}

// NewDate constructs an ExifDate from individual fields. It does not
// validate; write-path callers own the values they build.
func NewDate(year, month, day int) ExifDate {
	d := ExifDate{Year: year, Month: month, Day: day}
	d.RawValue = d.ToExifString()
	return d
}

var (
	reDateStrict = regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2})$`)
	reDateISO    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reDateLoose  = regexp.MustCompile(`^(\d{4})[-:](\d{1,2})[-:](\d{1,2})$`)
	reDateNamed  = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})$`)
)

// ParseDate tries every date parser from strictest to loosest and returns
// nil when none match.
func ParseDate(s string) *ExifDate {
	if d := ParseDateStrict(s); d != nil {
		return d
	}
	if d := ParseDateISO(s); d != nil {
		return d
	}
	return ParseDateLoose(s)
}

// ParseDateStrict accepts only exiftool's canonical "Y:MM:DD" form.
func ParseDateStrict(s string) *ExifDate {
	return dateFromMatch(s, reDateStrict.FindStringSubmatch(strings.TrimSpace(s)))
}

// ParseDateISO accepts the ISO-8601 "Y-MM-DD" form.
func ParseDateISO(s string) *ExifDate {
	return dateFromMatch(s, reDateISO.FindStringSubmatch(strings.TrimSpace(s)))
}

// ParseDateLoose tolerates missing zero-padding, either separator in the
// date part, and named months ("Mar 4 2018", "April 09 2018").
func ParseDateLoose(s string) *ExifDate {
	trimmed := strings.TrimSpace(s)
	if d := dateFromMatch(s, reDateLoose.FindStringSubmatch(trimmed)); d != nil {
		return d
	}
	if m := reDateNamed.FindStringSubmatch(trimmed); m != nil {
		mo, ok := monthNumber(m[1])
		if !ok {
			return nil
		}
		return newParsedDate(atoi(m[3]), mo, atoi(m[2]), s)
	}
	return nil
}

func dateFromMatch(raw string, m []string) *ExifDate {
	if m == nil {
		return nil
	}
	return newParsedDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), raw)
}

func newParsedDate(y, mo, d int, raw string) *ExifDate {
	if !validDate(y, mo, d) {
		return nil
	}
	return &ExifDate{Year: y, Month: mo, Day: d, RawValue: raw}
}

// ToExifString renders the canonical "Y:MM:DD" write syntax.
func (d ExifDate) ToExifString() string {
	return fmt.Sprintf("%04d:%02d:%02d", d.Year, d.Month, d.Day)
}

// ISO8601 renders the date as "Y-MM-DD".
func (d ExifDate) ISO8601() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d ExifDate) String() string { return d.ISO8601() }

type exifDateJSON struct {
	Ctor     string `json:"_ctor"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Day      int    `json:"day"`
	RawValue string `json:"rawValue"`
}

func (d ExifDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(exifDateJSON{
		Ctor: CtorDate, Year: d.Year, Month: d.Month, Day: d.Day, RawValue: d.RawValue,
	})
}

func (d *ExifDate) UnmarshalJSON(b []byte) error {
	var j exifDateJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*d = ExifDate{Year: j.Year, Month: j.Month, Day: j.Day, RawValue: j.RawValue}
	return nil
}
