package exifdt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExifDateTime is a date with time and an optional fixed UTC offset. An
// instance with HasOffset false is "floating": no zone is known, and it must
// never be silently treated as UTC. When HasOffset is true every
// zone-dependent rendering uses OffsetMinutes exclusively; Zone is display
// metadata only (an IANA name or a "UTC±HH[:MM]" label).
type ExifDateTime struct {
	Year          int
	Month         int
	Day           int
	Hour          int
	Minute        int
	Second        int
	Millisecond   int
	OffsetMinutes int
	HasOffset     bool
	Zone          string
	RawValue      string
}

// NewDateTime constructs a floating ExifDateTime from individual fields
// without validation, for write-path callers building a value to encode.
func NewDateTime(year, month, day, hour, minute, second, millisecond int) ExifDateTime {
	dt := ExifDateTime{
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second, Millisecond: millisecond,
	}
	dt.RawValue = dt.ToExifString()
	return dt
}

var (
	reDateTimeStrict = regexp.MustCompile(
		`^(\d{4}):(\d{2}):(\d{2}) (\d{2}):(\d{2}):(\d{2})(?:\.(\d+))?\s?(Z|[+-]\d{2}(?::?\d{2})?)?$`)
	reDateTimeISO = regexp.MustCompile(
		`^(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2})(?::(\d{2}))?(?:\.(\d+))?(Z|[+-]\d{2}(?::?\d{2})?)?$`)
	reDateTimeLoose = regexp.MustCompile(
		`^(\d{4})[-:](\d{1,2})[-:](\d{1,2})[T ](\d{1,2}):(\d{2})(?::(\d{2}))?(?:\.(\d+))?$`)
	reDateTimeNamed = regexp.MustCompile(
		`^([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseDateTime tries every datetime parser from strictest to loosest. zone
// is the file-level inferred zone ("" for none): it is attached only when
// the raw text carries no offset of its own.
func ParseDateTime(s, zone string) *ExifDateTime {
	if dt := ParseDateTimeStrict(s, zone); dt != nil {
		return dt
	}
	if dt := ParseDateTimeISO(s, zone); dt != nil {
		return dt
	}
	return ParseDateTimeLoose(s, zone)
}

// ParseDateTimeStrict accepts only exiftool's canonical
// "Y:MM:DD HH:MM:SS[.ffffff][±HH:MM|Z]" form.
func ParseDateTimeStrict(s, zone string) *ExifDateTime {
	m := reDateTimeStrict.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	return newParsedDateTime(s, zone, m[1:7], m[7], m[8])
}

// ParseDateTimeISO accepts ISO-8601 with either "T" or space separating
// date and time, with or without seconds and offset.
func ParseDateTimeISO(s, zone string) *ExifDateTime {
	m := reDateTimeISO.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	return newParsedDateTime(s, zone, m[1:7], m[7], m[8])
}

// ParseDateTimeLoose tolerates missing zero-padding, mixed date separators,
// and named months ("Mar 4 2018 09:30"). No offset suffix is accepted.
func ParseDateTimeLoose(s, zone string) *ExifDateTime {
	trimmed := strings.TrimSpace(s)
	if m := reDateTimeLoose.FindStringSubmatch(trimmed); m != nil {
		return newParsedDateTime(s, zone, m[1:7], m[7], "")
	}
	if m := reDateTimeNamed.FindStringSubmatch(trimmed); m != nil {
		mo, ok := monthNumber(m[1])
		if !ok {
			return nil
		}
		fields := []string{m[3], fmt.Sprintf("%d", mo), m[2], m[4], m[5], m[6]}
		return newParsedDateTime(s, zone, fields, "", "")
	}
	return nil
}

// newParsedDateTime assembles a parsed value from y/mo/d/h/mi/s field
// strings, a fractional-second capture, and an offset capture. An explicit
// offset in the text wins over the supplied zone.
func newParsedDateTime(raw, zone string, fields []string, frac, offset string) *ExifDateTime {
	y, mo, d := atoi(fields[0]), atoi(fields[1]), atoi(fields[2])
	h, mi, sec := atoi(fields[3]), atoi(fields[4]), atoi(fields[5])
	if !validDate(y, mo, d) || !validClock(h, mi, sec) {
		return nil
	}
	dt := &ExifDateTime{
		Year: y, Month: mo, Day: d,
		Hour: h, Minute: mi, Second: sec,
		Millisecond: fractionMillis(frac),
		RawValue:    raw,
	}
	if minutes, ok := parseOffsetSuffix(offset); ok {
		dt.OffsetMinutes = minutes
		dt.HasOffset = true
		dt.Zone = OffsetZoneName(minutes)
	} else if minutes, ok := ZoneOffsetMinutes(zone, y, mo, d, h, mi, sec); ok {
		dt.OffsetMinutes = minutes
		dt.HasOffset = true
		dt.Zone = zone
	}
	return dt
}

// ToExifString renders the canonical "Y:MM:DD HH:MM:SS.fff" write syntax,
// with the offset suffix when one is known.
func (dt ExifDateTime) ToExifString() string {
	s := fmt.Sprintf("%04d:%02d:%02d %02d:%02d:%02d.%03d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Millisecond)
	return s + dt.offsetSuffix(dt.HasOffset)
}

// ISO8601 renders ISO-8601 with milliseconds, appending the offset only
// when present and requested.
func (dt ExifDateTime) ISO8601(includeOffset bool) string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Millisecond)
	return s + dt.offsetSuffix(includeOffset)
}

func (dt ExifDateTime) offsetSuffix(include bool) string {
	if !include || !dt.HasOffset {
		return ""
	}
	if dt.OffsetMinutes == 0 {
		return "Z"
	}
	minutes := dt.OffsetMinutes
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

// String is ISO-8601 with the offset when known, without when floating.
func (dt ExifDateTime) String() string { return dt.ISO8601(true) }

type exifDateTimeJSON struct {
	Ctor            string `json:"_ctor"`
	Year            int    `json:"year"`
	Month           int    `json:"month"`
	Day             int    `json:"day"`
	Hour            int    `json:"hour"`
	Minute          int    `json:"minute"`
	Second          int    `json:"second"`
	Millisecond     int    `json:"millisecond"`
	TzOffsetMinutes *int   `json:"tzoffsetMinutes,omitempty"`
	ZoneName        string `json:"zoneName,omitempty"`
	RawValue        string `json:"rawValue"`
}

func (dt ExifDateTime) MarshalJSON() ([]byte, error) {
	j := exifDateTimeJSON{
		Ctor: CtorDateTime,
		Year: dt.Year, Month: dt.Month, Day: dt.Day,
		Hour: dt.Hour, Minute: dt.Minute, Second: dt.Second,
		Millisecond: dt.Millisecond,
		ZoneName:    dt.Zone,
		RawValue:    dt.RawValue,
	}
	if dt.HasOffset {
		offset := dt.OffsetMinutes
		j.TzOffsetMinutes = &offset
	}
	return json.Marshal(j)
}

func (dt *ExifDateTime) UnmarshalJSON(b []byte) error {
	var j exifDateTimeJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	out := ExifDateTime{
		Year: j.Year, Month: j.Month, Day: j.Day,
		Hour: j.Hour, Minute: j.Minute, Second: j.Second,
		Millisecond: j.Millisecond,
		Zone:        j.ZoneName,
		RawValue:    j.RawValue,
	}
	if j.TzOffsetMinutes != nil {
		out.OffsetMinutes = *j.TzOffsetMinutes
		out.HasOffset = true
	}
	*dt = out
	return nil
}
