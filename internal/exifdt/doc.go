// Package exifdt provides the three temporal value kinds produced and
// consumed by the tag engine: ExifDate (calendar date), ExifTime (wall-clock
// time), and ExifDateTime (date plus time with an optional fixed UTC offset).
//
// Each kind parses through a chain of entry points ordered strictest to
// loosest — exiftool's native "Y:MM:DD HH:MM:SS" shape, ISO-8601, then a
// tolerant variant accepting missing zero-padding, mixed separators, and
// named months. Every parser returns nil instead of an error so callers can
// chain attempts. Sentinel garbage ("0000", bare years, all-zero dates) is
// rejected at every level.
//
// Values render back to exiftool's native format (ToExifString) for write
// payloads, and to ISO-8601 (ISO8601/String) for display and interchange.
// The JSON form carries a "_ctor" discriminator so a record round-trips
// through encoding/json without losing the kind.
package exifdt
