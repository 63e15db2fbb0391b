// Package tzinfer derives a single timezone decision for one file from the
// partial, possibly-conflicting signals in its raw tag map: explicit offset
// tags, GPS coordinates, or the difference between a local timestamp and a
// UTC-referenced timestamp of the same instant.
//
// Rules are tried in that order; the first that yields a result wins, and
// every result carries a human-readable Source naming the rule and tag(s)
// that fired. No rule failure is fatal — an undetermined zone just leaves
// downstream timestamps floating.
package tzinfer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zsefvlol/timezonemapper"

	"github.com/backmassage/exiftag/internal/exifdt"
)

// Result is a resolved zone plus the provenance of the rule that produced
// it. Zone is an IANA name (GPS rule) or a fixed-offset "UTC±HH[:MM]" label.
type Result struct {
	Zone   string
	Source string
}

// Tags checked for an explicit offset, in priority order.
var offsetTags = []string{
	"TimeZone",
	"OffsetTime",
	"OffsetTimeOriginal",
	"OffsetTimeDigitized",
	"TimeZoneOffset",
}

// Local-timestamp candidates for the pair rule, in priority order.
var localTimestampTags = []string{
	"SubSecDateTimeOriginal",
	"DateTimeOriginal",
	"SubSecCreateDate",
	"CreateDate",
	"SubSecMediaCreateDate",
	"MediaCreateDate",
	"DateTimeCreated",
}

// UTC-referenced timestamp candidates for the pair rule.
var utcTimestampTags = []string{
	"GPSDateTime",
	"DateTimeUTC",
	"SonyDateTime2",
}

// Infer runs the precedence chain against the (group-stripped) raw tag map.
// lat/lon are the sign-corrected coordinates; hasLatLon is false when they
// are absent or were invalidated. Returns nil when no rule fires.
func Infer(tags map[string]any, lat, lon float64, hasLatLon bool) *Result {
	if r := FromTags(tags); r != nil {
		return r
	}
	if hasLatLon {
		if r := FromLatLon(lat, lon); r != nil {
			return r
		}
	}
	return FromTimestampPair(tags)
}

// FromTags checks the explicit-offset tags in priority order. Accepted
// shapes: a signed number in whole or half hours, a sequence of numbers
// (first element wins), or a signed "±HH[:MM]" string.
func FromTags(tags map[string]any) *Result {
	for _, name := range offsetTags {
		v, ok := tags[name]
		if !ok || v == nil {
			continue
		}
		if minutes, ok := offsetMinutes(v); ok {
			return &Result{
				Zone:   exifdt.OffsetZoneName(minutes),
				Source: "from " + name,
			}
		}
	}
	return nil
}

// FromLatLon resolves an IANA zone name from coordinates. The geographic
// lookup is fallible-by-result: out-of-coverage coordinates yield an empty
// name, which is treated as "no signal", never an error.
func FromLatLon(lat, lon float64) *Result {
	zone := timezonemapper.LatLngToTimezoneString(lat, lon)
	if zone == "" {
		return nil
	}
	return &Result{Zone: zone, Source: "from Lat/Lon"}
}

// FromTimestampPair computes the offset between the first parseable
// local/UTC timestamp pair, rounded to the nearest minute. The source names
// both tags that were compared.
func FromTimestampPair(tags map[string]any) *Result {
	for _, localName := range localTimestampTags {
		local := timestamp(tags, localName)
		if local == nil {
			continue
		}
		for _, utcName := range utcTimestampTags {
			utc := timestamp(tags, utcName)
			if utc == nil {
				continue
			}
			diff := clockMinutes(local) - clockMinutes(utc)
			minutes := int(math.Round(diff))
			return &Result{
				Zone:   exifdt.OffsetZoneName(minutes),
				Source: "offset between " + localName + " and " + utcName,
			}
		}
	}
	return nil
}

func timestamp(tags map[string]any, name string) *exifdt.ExifDateTime {
	s, ok := tags[name].(string)
	if !ok {
		return nil
	}
	if dt := exifdt.ParseDateTimeStrict(s, ""); dt != nil {
		return dt
	}
	return exifdt.ParseDateTimeISO(s, "")
}

// clockMinutes is the wall-clock reading as fractional minutes, ignoring
// any offset carried by the value itself: the pair rule compares rendered
// clock faces, not instants.
func clockMinutes(dt *exifdt.ExifDateTime) float64 {
	t := time.Date(dt.Year, time.Month(dt.Month), dt.Day,
		dt.Hour, dt.Minute, dt.Second, dt.Millisecond*int(time.Millisecond), time.UTC)
	return float64(t.UnixMilli()) / 60000
}

var reOffsetString = regexp.MustCompile(`^([+-])(\d{1,2})(?::(\d{2}))?$`)

// offsetMinutes converts one accepted offset-tag shape to minutes.
func offsetMinutes(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return hoursToMinutes(t)
	case int:
		return hoursToMinutes(float64(t))
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return offsetMinutes(t[0])
	case string:
		s := strings.TrimSpace(t)
		if m := reOffsetString.FindStringSubmatch(s); m != nil {
			hh, _ := strconv.Atoi(m[2])
			mm := 0
			if m[3] != "" {
				mm, _ = strconv.Atoi(m[3])
			}
			minutes := hh*60 + mm
			if m[1] == "-" {
				minutes = -minutes
			}
			return affirmRange(minutes)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return hoursToMinutes(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

// hoursToMinutes accepts whole- or half-hour offsets only; anything else is
// an unparseable signal, not an error.
func hoursToMinutes(hours float64) (int, bool) {
	minutes := hours * 60
	if minutes != math.Trunc(minutes) || math.Mod(minutes, 30) != 0 {
		return 0, false
	}
	return affirmRange(int(minutes))
}

// Offsets beyond ±14h don't exist on Earth.
func affirmRange(minutes int) (int, bool) {
	if minutes < -14*60 || minutes > 14*60 {
		return 0, false
	}
	return minutes, true
}
