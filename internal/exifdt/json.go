package exifdt

import "encoding/json"

// Discriminator values carried in the "_ctor" field of the JSON form.
const (
	CtorDateTime = "ExifDateTime"
	CtorDate     = "ExifDate"
	CtorTime     = "ExifTime"
)

// Revive reconstructs a temporal value from its decoded-JSON map form,
// dispatching on the "_ctor" discriminator. Returns false when m carries no
// recognized discriminator, so callers can leave plain objects untouched.
func Revive(m map[string]any) (any, bool) {
	ctor, _ := m["_ctor"].(string)
	if ctor == "" {
		return nil, false
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	switch ctor {
	case CtorDateTime:
		var dt ExifDateTime
		if json.Unmarshal(raw, &dt) != nil {
			return nil, false
		}
		return dt, true
	case CtorDate:
		var d ExifDate
		if json.Unmarshal(raw, &d) != nil {
			return nil, false
		}
		return d, true
	case CtorTime:
		var t ExifTime
		if json.Unmarshal(raw, &t) != nil {
			return nil, false
		}
		return t, true
	default:
		return nil, false
	}
}
