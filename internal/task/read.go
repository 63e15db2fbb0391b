package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/backmassage/exiftag/internal/exifdt"
	"github.com/backmassage/exiftag/internal/metadata"
	"github.com/backmassage/exiftag/internal/tzinfer"
)

// Tag names copied verbatim even though their names look date- or
// time-like: version and mode/firmware/capability descriptors.
var passthroughTags = []string{
	"ExifToolVersion",
	"DateStampMode",
	"Sharpness",
	"Firmware",
	"DateDisplayFormat",
}

// Values exiftool renders for "present but empty".
var nullishValues = []string{"undef", "null", "undefined"}

func isNullish(v any) bool {
	s, ok := v.(string)
	return ok && slices.Contains(nullishValues, strings.TrimSpace(s))
}

// ReadTask reads all tags of one file via -json -struct and normalizes the
// result into a typed record.
type ReadTask struct {
	base
	SourceFile string
	degroup    bool
}

// NewReadTask builds the read invocation for filename. numericTags are
// requested with a trailing '#' so exiftool renders them numerically; they
// must precede -all (first reference wins). optionalArgs may include -G to
// request group-prefixed keys.
func NewReadTask(filename string, numericTags []string, optionalArgs ...string) *ReadTask {
	sourceFile := resolvePath(filename)
	args := []string{"-json", "-struct"}
	args = append(args, optionalArgs...)
	for _, tag := range numericTags {
		args = append(args, "-"+tag+"#")
	}
	args = append(args, "-all", "-charset", "filename=utf8", sourceFile)
	return &ReadTask{
		base:       base{args: args},
		SourceFile: sourceFile,
		degroup:    slices.Contains(optionalArgs, "-G"),
	}
}

// Parse decodes one invocation's stdout and normalizes it. A document that
// is not the expected JSON shape, or that reports a different source file
// than requested, is fatal for the whole read; per-tag problems are
// recorded as warnings on the record instead.
func (t *ReadTask) Parse(stdout string, runErr error) (*metadata.Record, error) {
	var docs []metadata.Raw
	if err := json.Unmarshal([]byte(stdout), &docs); err != nil || len(docs) == 0 {
		log.Warn().Err(runErr).Str("file", t.SourceFile).Msg("read: invalid exiftool JSON")
		if runErr != nil {
			return nil, runErr
		}
		if err == nil {
			err = errors.New("empty document")
		}
		return nil, fmt.Errorf("parse exiftool JSON: %w", err)
	}
	raw := docs[0]

	// exiftool does "humorous" things to paths, like flipping separators;
	// resolvePath undoes that. A mismatch here means this result belongs
	// to a different request and must never be silently accepted.
	reported, _ := raw["SourceFile"].(string)
	if resolvePath(reported) != t.SourceFile {
		return nil, fmt.Errorf(
			"internal error: unexpected SourceFile %q for file %q", reported, t.SourceFile)
	}

	return Normalize(t.SourceFile, raw, t.degroup, t.Errors()), nil
}

// Normalize applies GPS sign correction, timezone inference, and per-tag
// temporal coercion to a raw tag map. It is exported separately from
// ReadTask so raw maps from other producers (see the sniff package) get
// identical treatment. warnings seeds the record's error list, typically
// with stderr lines from the invocation.
func Normalize(sourceFile string, raw metadata.Raw, degroup bool, warnings []string) *metadata.Record {
	n := &normalizer{
		raw:     raw,
		flat:    raw,
		degroup: degroup,
		rec: &metadata.Record{
			SourceFile: sourceFile,
			Tags:       make(map[string]any, len(raw)),
			Errors:     slices.Clone(warnings),
		},
	}
	if degroup {
		n.flat = make(metadata.Raw, len(raw))
		for k, v := range raw {
			n.flat[n.tagName(k)] = v
		}
	}
	n.extractLatLon()
	n.extractTZ()
	n.coerceTags()
	return n.rec
}

type normalizer struct {
	raw     metadata.Raw // keys as exiftool rendered them, possibly group-prefixed
	flat    metadata.Raw // always group-stripped keys, for lookups
	degroup bool
	rec     *metadata.Record

	lat, lon       float64
	hasLat, hasLon bool
	invalidLatLon  bool
}

func (n *normalizer) tagName(key string) string {
	if !n.degroup {
		return key
	}
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func (n *normalizer) addError(format string, args ...any) {
	n.rec.Errors = append(n.rec.Errors, fmt.Sprintf(format, args...))
}

// --- Stage: GPS extraction and sign correction ---

func (n *normalizer) extractLatLon() {
	n.lat, n.hasLat = n.latlon("GPSLatitude", "S", 90)
	n.lon, n.hasLon = n.latlon("GPSLongitude", "W", 180)
	if n.invalidLatLon {
		// GPS-derived timezone must not run on partial data: one bad
		// coordinate invalidates both.
		n.hasLat, n.hasLon = false, false
	}
}

// latlon reads the coordinate magnitude and its reference indicator.
// References match by prefix, case-insensitively, so both "S" and "South"
// negate. A missing reference trusts the magnitude's existing sign: some
// producers (video containers) never emit one and pre-negate instead.
func (n *normalizer) latlon(tagName, negateRef string, maxValid float64) (float64, bool) {
	v, ok := n.flat[tagName]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	if math.Abs(f) > maxValid {
		n.addError("Invalid %s: %v", tagName, v)
		n.invalidLatLon = true
		return 0, false
	}
	ref, _ := n.flat[tagName+"Ref"].(string)
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return f, true
	}
	if strings.HasPrefix(strings.ToUpper(ref), negateRef) {
		return -math.Abs(f), true
	}
	return math.Abs(f), true
}

// --- Stage: timezone inference ---

func (n *normalizer) extractTZ() {
	if r := tzinfer.Infer(n.flat, n.lat, n.lon, n.hasLat && n.hasLon); r != nil {
		n.rec.TZ = r.Zone
		n.rec.TZSource = r.Source
	}
}

// --- Stage: per-tag coercion ---

// coercionRule pairs a tag-name predicate with a parser chain. Rules are
// evaluated in order by coerce; a rule whose chain fails falls through to
// the next, because the name predicates overlap ("DateTime" contains both
// "Date" and "Time").
type coercionRule struct {
	matches func(tag string) bool
	parse   func(value, zone string) (any, bool)
}

var coercionRules = []coercionRule{
	{
		// "DateTime" tags are full timestamps; only the unambiguous
		// shapes are tried first.
		matches: func(tag string) bool { return strings.Contains(tag, "DateTime") },
		parse: func(v, zone string) (any, bool) {
			if dt := exifdt.ParseDateTimeStrict(v, zone); dt != nil {
				return *dt, true
			}
			if dt := exifdt.ParseDateTimeISO(v, zone); dt != nil {
				return *dt, true
			}
			return nil, false
		},
	},
	{
		// "Date" tags may be timestamps or bare dates; try the full
		// datetime chain, then the date chain.
		matches: func(tag string) bool { return strings.Contains(tag, "Date") },
		parse: func(v, zone string) (any, bool) {
			if dt := exifdt.ParseDateTime(v, zone); dt != nil {
				return *dt, true
			}
			if d := exifdt.ParseDate(v); d != nil {
				return *d, true
			}
			return nil, false
		},
	},
	{
		// "Time" tags get only the bare-time parser: values like
		// ExposureTime ("1/300") simply fail and stay raw.
		matches: func(tag string) bool { return strings.Contains(tag, "Time") },
		parse: func(v, _ string) (any, bool) {
			if t := exifdt.ParseTime(v); t != nil {
				return *t, true
			}
			return nil, false
		},
	},
}

// looksTemporal guards the recovered-coercion warning: only values that
// resemble a timestamp shape but failed validation are worth reporting.
var reLooksTemporal = regexp.MustCompile(`^\d{4}[-:]\d{1,2}[-:]\d{1,2}`)

func (n *normalizer) coerceTags() {
	for key, value := range n.raw {
		if key == "SourceFile" {
			continue
		}
		if coerced, keep := n.coerce(n.tagName(key), value); keep {
			n.rec.Tags[key] = coerced
		}
	}
}

func (n *normalizer) coerce(name string, value any) (any, bool) {
	if value == nil || isNullish(value) {
		return nil, false
	}
	if slices.Contains(passthroughTags, name) {
		return value, true
	}

	// Coordinate tags are replaced by the corrected signed values, or
	// dropped entirely when out of range.
	switch name {
	case "GPSLatitude":
		return n.lat, n.hasLat
	case "GPSLongitude":
		return n.lon, n.hasLon
	}

	s, ok := value.(string)
	if !ok {
		// exiftool rendered a number, bool, struct, or array: trust it.
		return value, true
	}

	// GPS and *UTC* tags are defined by the format to be UTC already;
	// everything else uses the file-level inferred zone, or floats.
	zone := n.rec.TZ
	if strings.Contains(name, "UTC") || strings.HasPrefix(name, "GPS") {
		zone = "UTC"
	}

	for _, rule := range coercionRules {
		if !rule.matches(name) {
			continue
		}
		if v, ok := rule.parse(s, zone); ok {
			return v, true
		}
	}

	// Chain exhaustion on a date-like name with a timestamp-shaped value
	// means the components were impossible: record it and keep the raw
	// text rather than dropping the tag.
	if nameIsTemporal(name) && reLooksTemporal.MatchString(s) {
		n.addError("Failed to parse %s with value %q", name, s)
	}
	return value, true
}

func nameIsTemporal(name string) bool {
	return strings.Contains(name, "Date") || strings.Contains(name, "Time")
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
