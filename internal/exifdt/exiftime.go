package exifdt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExifTime is a wall-clock time with no date and no zone, as rendered for
// tags like GPSTimeStamp.
type ExifTime struct {
	Hour        int
	Minute      int
	Second      int
	Millisecond int
	RawValue    string
}

// NewTime constructs an ExifTime from individual fields without validation.
func NewTime(hour, minute, second, millisecond int) ExifTime {
	t := ExifTime{Hour: hour, Minute: minute, Second: second, Millisecond: millisecond}
	t.RawValue = t.ToExifString()
	return t
}

// A trailing offset is tolerated but discarded: ExifTime carries no zone.
var reTime = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})(?:\.(\d+))?(?:Z|[+-]\d{2}:?\d{2})?$`)

// ParseTime parses exiftool's "HH:MM:SS[.fff]" form, returning nil when the
// input does not match or names an impossible time.
func ParseTime(s string) *ExifTime {
	m := reTime.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	h, mi, sec := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if !validClock(h, mi, sec) {
		return nil
	}
	return &ExifTime{
		Hour: h, Minute: mi, Second: sec,
		Millisecond: fractionMillis(m[4]),
		RawValue:    s,
	}
}

// ToExifString renders "HH:MM:SS", with milliseconds only when nonzero.
func (t ExifTime) ToExifString() string {
	if t.Millisecond != 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour, t.Minute, t.Second, t.Millisecond)
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ISO8601 is the same shape as the native form for a bare time.
func (t ExifTime) ISO8601() string { return t.ToExifString() }

func (t ExifTime) String() string { return t.ISO8601() }

type exifTimeJSON struct {
	Ctor        string `json:"_ctor"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	Second      int    `json:"second"`
	Millisecond int    `json:"millisecond"`
	RawValue    string `json:"rawValue"`
}

func (t ExifTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(exifTimeJSON{
		Ctor: CtorTime, Hour: t.Hour, Minute: t.Minute, Second: t.Second,
		Millisecond: t.Millisecond, RawValue: t.RawValue,
	})
}

func (t *ExifTime) UnmarshalJSON(b []byte) error {
	var j exifTimeJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*t = ExifTime{Hour: j.Hour, Minute: j.Minute, Second: j.Second,
		Millisecond: j.Millisecond, RawValue: j.RawValue}
	return nil
}
