// Package metadata defines the raw and typed tag records exchanged with the
// tag engine, and the JSON interchange codec that round-trips typed records
// without losing the temporal value kinds.
package metadata

// Raw is the tag mapping decoded from one exiftool -json invocation. Keys
// may be group-prefixed ("EXIF:DateTimeOriginal") when -G was requested;
// values are whatever shapes exiftool rendered: strings, numbers, booleans,
// nested objects, or arrays. Immutable after decode.
type Raw map[string]any

// Struct is a nested structured tag value (exiftool -struct output), also
// used by write-path callers to build structured updates.
type Struct map[string]any

// Record is the typed result of normalizing one read invocation. Tags holds
// primitives, exifdt temporal values, Structs, and sequences, keyed exactly
// as the raw map was keyed. Constructed fresh per invocation and never
// mutated afterward.
type Record struct {
	// SourceFile is the normalized path the invocation was for.
	SourceFile string

	Tags map[string]any

	// TZ is the inferred zone identifier or fixed-offset label, with
	// TZSource naming the inference rule and tag(s) that produced it.
	// Both are empty when the zone is undetermined.
	TZ       string
	TZSource string

	// Errors accumulates non-fatal per-tag warnings.
	Errors []string
}

// Lat returns the sign-corrected latitude, if present and valid.
func (r *Record) Lat() (float64, bool) { return r.coord("GPSLatitude") }

// Lon returns the sign-corrected longitude, if present and valid.
func (r *Record) Lon() (float64, bool) { return r.coord("GPSLongitude") }

func (r *Record) coord(name string) (float64, bool) {
	for k, v := range r.Tags {
		if k == name || stripGroup(k) == name {
			f, ok := v.(float64)
			return f, ok
		}
	}
	return 0, false
}

// stripGroup removes a "Group:" prefix from a tag key, if any.
func stripGroup(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[i+1:]
		}
	}
	return key
}
