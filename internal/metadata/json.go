package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/backmassage/exiftag/internal/exifdt"
)

// Reserved top-level keys in the interchange form. Everything else in the
// document is a tag.
const (
	keySourceFile = "SourceFile"
	keyTZ         = "tz"
	keyTZSource   = "tzSource"
	keyErrors     = "errors"
)

// MarshalJSON renders the record as a flat JSON document: tags at the top
// level alongside SourceFile, tz, tzSource, and errors. Temporal values
// carry their "_ctor" discriminator so ParseJSON can rebuild them exactly.
func (r Record) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Tags)+4)
	for k, v := range r.Tags {
		doc[k] = v
	}
	doc[keySourceFile] = r.SourceFile
	if r.TZ != "" {
		doc[keyTZ] = r.TZ
	}
	if r.TZSource != "" {
		doc[keyTZSource] = r.TZSource
	}
	if len(r.Errors) > 0 {
		doc[keyErrors] = r.Errors
	}
	return json.Marshal(doc)
}

// ParseJSON decodes an interchange document produced by MarshalJSON,
// reviving each "_ctor"-tagged object into its exifdt value so the decoded
// record equals the one that was encoded.
func ParseJSON(data []byte) (*Record, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse interchange JSON: %w", err)
	}

	r := &Record{Tags: make(map[string]any, len(doc))}
	for k, v := range doc {
		switch k {
		case keySourceFile:
			r.SourceFile, _ = v.(string)
		case keyTZ:
			r.TZ, _ = v.(string)
		case keyTZSource:
			r.TZSource, _ = v.(string)
		case keyErrors:
			if errs, ok := v.([]any); ok {
				for _, e := range errs {
					if s, ok := e.(string); ok {
						r.Errors = append(r.Errors, s)
					}
				}
			}
		default:
			r.Tags[k] = revive(v)
		}
	}
	return r, nil
}

// revive walks a decoded JSON value, replacing discriminator-tagged maps
// with typed temporal values and recursing into plain containers.
func revive(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if typed, ok := exifdt.Revive(t); ok {
			return typed
		}
		s := make(Struct, len(t))
		for k, e := range t {
			s[k] = revive(e)
		}
		return s
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = revive(e)
		}
		return out
	default:
		return v
	}
}
