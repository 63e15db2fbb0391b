package task

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/exiftag/internal/exifdt"
	"github.com/backmassage/exiftag/internal/metadata"
)

// parseRead feeds a fabricated exiftool -json document through a ReadTask,
// the way the executor would.
func parseRead(t *testing.T, tags map[string]any, optional ...string) *metadata.Record {
	t.Helper()
	rt := NewReadTask("/tmp/example.jpg", nil, optional...)
	tags["SourceFile"] = "/tmp/example.jpg"
	data, err := json.Marshal([]any{tags})
	require.NoError(t, err)
	rec, err := rt.Parse(string(data), nil)
	require.NoError(t, err)
	return rec
}

func datetimeTag(t *testing.T, rec *metadata.Record, name string) exifdt.ExifDateTime {
	t.Helper()
	dt, ok := rec.Tags[name].(exifdt.ExifDateTime)
	require.True(t, ok, "tag %s is %T, want ExifDateTime", name, rec.Tags[name])
	return dt
}

func TestReadLatLon(t *testing.T) {
	cases := []struct {
		name string
		tags map[string]any
		tag  string
		want float64
	}{
		{
			name: "N lat is positive",
			tags: map[string]any{"GPSLatitude": 22.33543889, "GPSLatitudeRef": "N"},
			tag:  "GPSLatitude", want: 22.33543889,
		},
		{
			name: "S lat is negative",
			tags: map[string]any{"GPSLatitude": 33.84842123, "GPSLatitudeRef": "S"},
			tag:  "GPSLatitude", want: -33.84842123,
		},
		{
			name: "E lon is positive",
			tags: map[string]any{"GPSLongitude": 114.16401667, "GPSLongitudeRef": "E"},
			tag:  "GPSLongitude", want: 114.16401667,
		},
		{
			name: "W lon is negative",
			tags: map[string]any{"GPSLongitude": 122.4406148, "GPSLongitudeRef": "W"},
			tag:  "GPSLongitude", want: -122.4406148,
		},
		{
			name: "full-word ref matches by prefix",
			tags: map[string]any{"GPSLongitude": 122.4406148, "GPSLongitudeRef": "West"},
			tag:  "GPSLongitude", want: -122.4406148,
		},
		{
			name: "ref negates an already-negative magnitude once",
			tags: map[string]any{"GPSLatitude": -33.84842123, "GPSLatitudeRef": "South"},
			tag:  "GPSLatitude", want: -33.84842123,
		},
		{
			name: "lat lon parsed even when timezone tag is present",
			tags: map[string]any{
				"GPSLongitude": 122.4406148, "GPSLongitudeRef": "West", "OffsetTime": "+02:00",
			},
			tag: "GPSLongitude", want: -122.4406148,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := parseRead(t, tc.tags)
			got, ok := rec.Tags[tc.tag].(float64)
			require.True(t, ok)
			assert.InDelta(t, tc.want, got, 0.00001)
		})
	}
}

func TestReadLatLonWithoutRefs(t *testing.T) {
	// Video containers emit no *Ref tags; the given sign must be trusted.
	for _, latSign := range []float64{1, -1} {
		for _, lonSign := range []float64{1, -1} {
			rec := parseRead(t, map[string]any{
				"GPSLatitude":  latSign * 34.4,
				"GPSLongitude": lonSign * 119.8,
			})
			assert.Equal(t, latSign*34.4, rec.Tags["GPSLatitude"])
			assert.Equal(t, lonSign*119.8, rec.Tags["GPSLongitude"])
		}
	}
}

func TestReadInvalidLatInvalidatesLon(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"GPSLatitude":  95.0,
		"GPSLongitude": 119.8,
	})
	_, hasLat := rec.Tags["GPSLatitude"]
	_, hasLon := rec.Tags["GPSLongitude"]
	assert.False(t, hasLat)
	assert.False(t, hasLon, "valid longitude must be dropped alongside the bad latitude")
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0], "Invalid GPSLatitude")
	assert.Contains(t, rec.Errors[0], "95")
	assert.Empty(t, rec.TZ, "GPS-derived timezone must not run on partial data")
}

func TestReadTimezoneExtraction(t *testing.T) {
	cases := []struct {
		name string
		tags map[string]any

		wantOffset   int
		wantTZ       string
		wantTZSource string
	}{
		{
			name: "singular positive TimeZoneOffset",
			tags: map[string]any{
				"TimeZoneOffset": 9, "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: 9 * 60, wantTZ: "UTC+09", wantTZSource: "from TimeZoneOffset",
		},
		{
			name: "array TimeZoneOffset takes first",
			tags: map[string]any{
				"TimeZoneOffset": []int{9, 8}, "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: 9 * 60, wantTZ: "UTC+09", wantTZSource: "from TimeZoneOffset",
		},
		{
			name: "zulu TimeZoneOffset",
			tags: map[string]any{
				"TimeZoneOffset": 0, "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: 0, wantTZ: "UTC", wantTZSource: "from TimeZoneOffset",
		},
		{
			name: "negative array TimeZoneOffset",
			tags: map[string]any{
				"TimeZoneOffset": []int{-4}, "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: -4 * 60, wantTZ: "UTC-04", wantTZSource: "from TimeZoneOffset",
		},
		{
			name: "positive HH:MM OffsetTime",
			tags: map[string]any{
				"OffsetTime": "+02:30", "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: 2*60 + 30, wantTZ: "UTC+02:30", wantTZSource: "from OffsetTime",
		},
		{
			name: "positive HH OffsetTime",
			tags: map[string]any{
				"OffsetTime": "+07", "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: 7 * 60, wantTZ: "UTC+07", wantTZSource: "from OffsetTime",
		},
		{
			name: "negative HH:MM OffsetTime",
			tags: map[string]any{
				"OffsetTime": "-06:30", "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: -(6*60 + 30), wantTZ: "UTC-06:30", wantTZSource: "from OffsetTime",
		},
		{
			name: "negative bare-digit OffsetTime",
			tags: map[string]any{
				"OffsetTime": "-9", "DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: -9 * 60, wantTZ: "UTC-09", wantTZSource: "from OffsetTime",
		},
		{
			name: "GPS yields a real named zone (Landscape Arch)",
			tags: map[string]any{
				"GPSLatitude":      38.791121,
				"GPSLatitudeRef":   "North",
				"GPSLongitude":     109.606407,
				"GPSLongitudeRef":  "West",
				"DateTimeOriginal": "2016:08:12 13:28:50",
			},
			wantOffset: -6 * 60, wantTZ: "America/Denver", wantTZSource: "from Lat/Lon",
		},
		{
			name: "GPSDateTime pair for -7",
			tags: map[string]any{
				"DateTimeOriginal": "2016:10:19 11:15:14",
				"GPSDateTime":      "2016:10:19 18:15:12",
				"DateTimeCreated":  "2016:10:19 11:15:14",
			},
			wantOffset: -7 * 60, wantTZ: "UTC-07",
			wantTZSource: "offset between DateTimeOriginal and GPSDateTime",
		},
		{
			name: "DateTimeUTC pair for +8",
			tags: map[string]any{
				"DateTimeOriginal": "2016:10:19 11:15:14",
				"DateTimeUTC":      "2016:10:19 03:15:12",
				"DateTimeCreated":  "2016:10:19 11:15:14",
			},
			wantOffset: 8 * 60, wantTZ: "UTC+08",
			wantTZSource: "offset between DateTimeOriginal and DateTimeUTC",
		},
		{
			name: "DateTimeUTC pair for +5:30",
			tags: map[string]any{
				"DateTimeOriginal": "2018:10:19 11:15:14",
				"DateTimeUTC":      "2018:10:19 05:45:12",
				"DateTimeCreated":  "2018:10:19 11:15:14",
			},
			wantOffset: 5*60 + 30, wantTZ: "UTC+05:30",
			wantTZSource: "offset between DateTimeOriginal and DateTimeUTC",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := parseRead(t, tc.tags)
			assert.Equal(t, tc.wantTZ, rec.TZ)
			assert.Equal(t, tc.wantTZSource, rec.TZSource)

			dto := datetimeTag(t, rec, "DateTimeOriginal")
			require.True(t, dto.HasOffset)
			assert.Equal(t, tc.wantOffset, dto.OffsetMinutes)

			if _, ok := tc.tags["DateTimeCreated"]; ok {
				dtc := datetimeTag(t, rec, "DateTimeCreated")
				require.True(t, dtc.HasOffset)
				assert.Equal(t, tc.wantOffset, dtc.OffsetMinutes)
			}
		})
	}
}

func TestReadSubSecPair(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"DateTimeOriginal":       "2016:12:13 09:05:27",
		"GPSDateTime":            "2016:12:13 17:05:25Z",
		"SubSecDateTimeOriginal": "2016:12:13 09:05:27.12038200",
	})
	assert.Equal(t, "UTC-08", rec.TZ)
	assert.Equal(t, "offset between SubSecDateTimeOriginal and GPSDateTime", rec.TZSource)

	sub := datetimeTag(t, rec, "SubSecDateTimeOriginal")
	assert.Equal(t, "2016:12:13 09:05:27.12038200", sub.RawValue)
	assert.Equal(t, "2016-12-13T09:05:27.120-08:00", sub.ISO8601(true))

	gps := datetimeTag(t, rec, "GPSDateTime")
	assert.Equal(t, "2016:12:13 17:05:25Z", gps.RawValue)
	assert.Equal(t, "2016-12-13T17:05:25.000Z", gps.ISO8601(true))
	assert.Equal(t, "UTC", gps.Zone)
}

func TestReadSkipsInvalidTimestamps(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"DateTimeOriginal": "2016:08:12 13:28:50",
		"GPSDateTime":      "not a timestamp",
	})
	dto := datetimeTag(t, rec, "DateTimeOriginal")
	assert.False(t, dto.HasOffset)
	assert.Empty(t, rec.TZ)
	assert.Empty(t, rec.TZSource)
	// The unparseable value stays raw rather than vanishing.
	assert.Equal(t, "not a timestamp", rec.Tags["GPSDateTime"])
}

func TestReadSubSecMillis(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"SubSecDateTimeOriginal": "2016:10:19 11:15:14.437831",
	})
	dt := datetimeTag(t, rec, "SubSecDateTimeOriginal")
	assert.Equal(t, 2016, dt.Year)
	assert.Equal(t, 10, dt.Month)
	assert.Equal(t, 19, dt.Day)
	assert.Equal(t, 11, dt.Hour)
	assert.Equal(t, 15, dt.Minute)
	assert.Equal(t, 14, dt.Second)
	assert.Equal(t, 437, dt.Millisecond)
	assert.False(t, dt.HasOffset)
}

func TestReadGPSTagsParseAsUTC(t *testing.T) {
	// GPS-namespace timestamps are defined to be UTC even when the file
	// has a different inferred zone.
	rec := parseRead(t, map[string]any{
		"OffsetTime":       "+02:00",
		"DateTimeOriginal": "2016:07:19 12:00:24",
		"GPSDateTime":      "2016:07:19 10:00:24",
		"GPSDateStamp":     "2016:07:19",
		"GPSTimeStamp":     "10:00:24",
	})
	assert.Equal(t, "UTC+02", rec.TZ)

	gps := datetimeTag(t, rec, "GPSDateTime")
	require.True(t, gps.HasOffset)
	assert.Equal(t, 0, gps.OffsetMinutes)

	dto := datetimeTag(t, rec, "DateTimeOriginal")
	assert.Equal(t, 120, dto.OffsetMinutes)

	assert.IsType(t, exifdt.ExifDate{}, rec.Tags["GPSDateStamp"])
	assert.IsType(t, exifdt.ExifTime{}, rec.Tags["GPSTimeStamp"])
}

func TestReadPassthroughAndNullish(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"DateStampMode":     "auto",       // allow-listed despite "Date" in the name
		"DateDisplayFormat": "Y/M/D",      // allow-listed
		"ExposureTime":      "1/300",      // "Time" tag that is not a time
		"Orientation":       6,            // numeric passthrough
		"Comment":           "undef",      // empty sentinel
		"UserComment":       " null ",     // empty sentinel, padded
		"Keywords":          []string{"red fish", "blue fish"},
	})
	assert.Equal(t, "auto", rec.Tags["DateStampMode"])
	assert.Equal(t, "Y/M/D", rec.Tags["DateDisplayFormat"])
	assert.Equal(t, "1/300", rec.Tags["ExposureTime"])
	assert.Equal(t, float64(6), rec.Tags["Orientation"])
	assert.NotContains(t, rec.Tags, "Comment")
	assert.NotContains(t, rec.Tags, "UserComment")
	assert.Equal(t, []any{"red fish", "blue fish"}, rec.Tags["Keywords"])
	assert.Empty(t, rec.Errors)
}

func TestReadWarnsOnImpossibleTimestamp(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"DateTimeOriginal": "2016:13:42 99:99:99",
	})
	// Kept raw, with a recovery warning naming the tag and value.
	assert.Equal(t, "2016:13:42 99:99:99", rec.Tags["DateTimeOriginal"])
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0], "DateTimeOriginal")
	assert.Contains(t, rec.Errors[0], "2016:13:42 99:99:99")
}

func TestReadDegroup(t *testing.T) {
	rec := parseRead(t, map[string]any{
		"EXIF:GPSLatitude":      22.33543889,
		"EXIF:GPSLatitudeRef":   "North",
		"EXIF:DateTimeOriginal": "2016:08:12 13:28:50",
		"Composite:OffsetTime":  "+07",
	}, "-G")

	// Output keys keep their group prefixes; lookups are group-blind.
	got, ok := rec.Tags["EXIF:GPSLatitude"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 22.33543889, got, 0.00001)
	assert.Equal(t, "UTC+07", rec.TZ)

	dto, ok := rec.Tags["EXIF:DateTimeOriginal"].(exifdt.ExifDateTime)
	require.True(t, ok)
	assert.Equal(t, 7*60, dto.OffsetMinutes)
}

func TestReadSourceFileMismatchIsFatal(t *testing.T) {
	rt := NewReadTask("/tmp/example.jpg", nil)
	data, err := json.Marshal([]any{map[string]any{
		"SourceFile": "/tmp/other.jpg",
		"Make":       "LGE",
	}})
	require.NoError(t, err)
	_, err = rt.Parse(string(data), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/tmp/other.jpg")
	assert.Contains(t, err.Error(), "/tmp/example.jpg")
}

func TestReadInvalidJSONIsFatal(t *testing.T) {
	rt := NewReadTask("/tmp/example.jpg", nil)
	_, err := rt.Parse("this is not json", nil)
	assert.Error(t, err)

	_, err = rt.Parse("[]", nil)
	assert.Error(t, err)
}

func TestReadCarriesInvocationWarnings(t *testing.T) {
	rt := NewReadTask("/tmp/example.jpg", nil)
	rt.AddError("Warning: Bad IFD0 directory")
	data, err := json.Marshal([]any{map[string]any{"SourceFile": "/tmp/example.jpg"}})
	require.NoError(t, err)
	rec, err := rt.Parse(string(data), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Warning: Bad IFD0 directory"}, rec.Errors)
}

func TestReadArgs(t *testing.T) {
	rt := NewReadTask("/tmp/example.jpg", []string{"Orientation"}, "-G")
	assert.Equal(t, []string{
		"-json", "-struct", "-G", "-Orientation#",
		"-all", "-charset", "filename=utf8", "/tmp/example.jpg",
	}, rt.Args())
}
