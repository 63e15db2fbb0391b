// Package sniff reads a file's EXIF block in-process, without spawning
// exiftool. It covers far fewer tags and container formats than the real
// tool, but is orders of magnitude cheaper for triage passes over large
// directories. The decoded tags go through the same normalization pipeline
// as an exiftool read, so records from either source look alike.
package sniff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/backmassage/exiftag/internal/metadata"
	"github.com/backmassage/exiftag/internal/task"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Formats goexif can decode.
var sniffableExts = []string{".jpg", ".jpeg", ".tif", ".tiff"}

// IsSniffable reports whether path's extension is a container the local
// decoder understands. Everything else needs the real tool.
func IsSniffable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sniffableExts {
		if ext == e {
			return true
		}
	}
	return false
}

// stringTags maps decoded field names to the tag names exiftool reports for
// the same data.
var stringTags = map[exif.FieldName]string{
	exif.DateTimeOriginal:  "DateTimeOriginal",
	exif.DateTimeDigitized: "CreateDate",
	exif.DateTime:          "ModifyDate",
	exif.Make:              "Make",
	exif.Model:             "Model",
	exif.Software:          "Software",
	exif.Artist:            "Artist",
	exif.Copyright:         "Copyright",
	exif.ImageDescription:  "ImageDescription",
	exif.LensModel:         "LensModel",
	exif.GPSDateStamp:      "GPSDateStamp",
	exif.GPSLatitudeRef:    "GPSLatitudeRef",
	exif.GPSLongitudeRef:   "GPSLongitudeRef",
}

var intTags = map[exif.FieldName]string{
	exif.Orientation:     "Orientation",
	exif.ISOSpeedRatings: "ISO",
}

// Sniff decodes filename's EXIF block and returns a normalized record. A
// file with no EXIF data is an error here, not an empty record: the caller
// cannot tell "no tags" from "format not understood" locally and should
// fall back to exiftool for either.
func Sniff(filename string) (*metadata.Record, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("sniff %s: %w", filename, err)
	}

	sourceFile, err := filepath.Abs(filename)
	if err != nil {
		sourceFile = filepath.Clean(filename)
	}
	return task.Normalize(sourceFile, compose(x), false, nil), nil
}

// compose renders the decoded fields the way exiftool's -json output would,
// so Normalize applies identical coercion to both.
func compose(x *exif.Exif) metadata.Raw {
	raw := metadata.Raw{}

	for field, tagName := range stringTags {
		if tag, err := x.Get(field); err == nil {
			if s, err := tag.StringVal(); err == nil && s != "" {
				raw[tagName] = s
			}
		}
	}
	for field, tagName := range intTags {
		if tag, err := x.Get(field); err == nil {
			if n, err := tag.Int(0); err == nil {
				raw[tagName] = n
			}
		}
	}

	// Sub-second precision lives in separate tags on disk; exiftool exposes
	// the joined composites.
	subSec(x, raw, exif.SubSecTimeOriginal, "DateTimeOriginal", "SubSecDateTimeOriginal")
	subSec(x, raw, exif.SubSecTimeDigitized, "CreateDate", "SubSecCreateDate")

	// LatLong applies the hemisphere references itself, so the magnitudes
	// arrive pre-signed; the normalizer trusts signs when it has them.
	if lat, lon, err := x.LatLong(); err == nil {
		raw["GPSLatitude"] = lat
		raw["GPSLongitude"] = lon
	}

	if clock, ok := gpsClock(x); ok {
		raw["GPSTimeStamp"] = clock
		if date, ok := raw["GPSDateStamp"].(string); ok {
			raw["GPSDateTime"] = date + " " + clock + "Z"
		}
	}

	if frac, ok := rational(x, exif.ExposureTime); ok {
		raw["ExposureTime"] = frac
	}

	return raw
}

func subSec(x *exif.Exif, raw metadata.Raw, field exif.FieldName, baseTag, composite string) {
	tag, err := x.Get(field)
	if err != nil {
		return
	}
	frac, err := tag.StringVal()
	if err != nil || frac == "" {
		return
	}
	if base, ok := raw[baseTag].(string); ok {
		raw[composite] = base + "." + frac
	}
}

// gpsClock reads the three GPSTimeStamp rationals. Seconds may carry a
// fractional denominator; exiftool truncates them in this rendering and so
// do we.
func gpsClock(x *exif.Exif) (string, bool) {
	tag, err := x.Get(exif.GPSTimeStamp)
	if err != nil || tag.Count < 3 {
		return "", false
	}
	parts := make([]int64, 3)
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return "", false
		}
		parts[i] = num / den
	}
	return clockString(parts[0], parts[1], parts[2]), true
}

func clockString(h, m, s int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func rational(x *exif.Exif, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return "", false
	}
	if den == 1 {
		return fmt.Sprintf("%d", num), true
	}
	return fmt.Sprintf("%d/%d", num, den), true
}
