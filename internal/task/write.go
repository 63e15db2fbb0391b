package task

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/backmassage/exiftag/internal/exifdt"
	"github.com/backmassage/exiftag/internal/fsutil"
	"github.com/backmassage/exiftag/internal/metadata"
)

// unitSep joins primitive list elements. Using the ASCII unit separator
// (with -sep below) lets list values containing commas round-trip unsplit.
const unitSep = "\x1f"

// charsetArgs must precede all tag arguments: UTF-8 filenames and values,
// the list separator, and -E so HTML-entity escapes in values are decoded.
var charsetArgs = []string{
	"-charset",
	"filename=utf8",
	"-codedcharacterset=utf8",
	"-sep",
	unitSep,
	"-E",
}

var reWriteSuccess = regexp.MustCompile(`1 image files? (?:created|updated)`)

// WriteTask applies a set of tag updates (nil value = delete) to one file.
type WriteTask struct {
	base
	SourceFile string
}

// NewWriteTask encodes tags into exiftool's text-argument lines for
// filename. Keys may carry a '#' suffix to force numeric interpretation.
//
// The returned noop is true when the update would only delete tags from a
// confirmed-empty target: exiftool rejects that with "Nothing to write", so
// the caller should skip the invocation and report success.
func NewWriteTask(filename string, tags map[string]any, optionalArgs ...string) (t *WriteTask, noop bool, err error) {
	sourceFile := resolvePath(filename)

	deletesOnly := true
	for _, v := range tags {
		if v != nil {
			deletesOnly = false
			break
		}
	}
	if deletesOnly && (len(optionalArgs) == 0 || slices.Equal(optionalArgs, DeleteAllTagsArgs)) {
		empty, err := fsutil.IsFileEmpty(filename)
		if err != nil {
			return nil, false, err
		}
		if empty {
			return nil, true, nil
		}
	}

	args := slices.Clone(charsetArgs)
	for _, key := range sortedKeys(tags) {
		encoded, err := encodeValue(tags[key])
		if err != nil {
			return nil, false, fmt.Errorf("encode %s: %w", key, err)
		}
		args = append(args, "-"+key+"="+encoded)
	}
	args = append(args, optionalArgs...)
	args = append(args, sourceFile)

	return &WriteTask{base: base{args: args}, SourceFile: sourceFile}, false, nil
}

// Parse checks the invocation outcome. Non-empty warnings fail the write
// even under a successful-looking status line: exiftool reports some
// validation problems as warnings, and a partial write must not be reported
// as success.
func (t *WriteTask) Parse(stdout string, runErr error) (struct{}, error) {
	if runErr != nil {
		return struct{}{}, runErr
	}
	if errs := t.Errors(); len(errs) > 0 {
		return struct{}{}, fmt.Errorf("%s", strings.Join(errs, ";"))
	}
	if reWriteSuccess.MatchString(strings.TrimSpace(stdout)) {
		return struct{}{}, nil
	}
	return struct{}{}, fmt.Errorf("no success message: %s", strings.TrimSpace(stdout))
}

// encodeValue renders one tag value in exiftool's write syntax. Any shape
// outside the supported set is a programmer error and fails loudly rather
// than being stringified.
func encodeValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		// Bare "-Tag=" deletes the tag.
		return "", nil
	case string:
		return htmlEncode(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case exifdt.DateOrTime:
		return t.ToExifString(), nil
	case []string:
		anys := make([]any, len(t))
		for i, s := range t {
			anys[i] = s
		}
		return encodeList(anys)
	case []any:
		return encodeList(t)
	case metadata.Struct:
		return encodeStruct(t)
	case map[string]any:
		return encodeStruct(t)
	default:
		return "", fmt.Errorf("cannot encode %T (%v)", v, v)
	}
}

// encodeList joins all-primitive sequences with the unit separator; a
// sequence with any structured element uses bracket syntax instead.
func encodeList(list []any) (string, error) {
	primitive := true
	for _, e := range list {
		switch e.(type) {
		case string, int, int64, float64:
		default:
			primitive = false
		}
	}
	parts := make([]string, len(list))
	for i, e := range list {
		enc, err := encodeValue(e)
		if err != nil {
			return "", err
		}
		parts[i] = enc
	}
	if primitive {
		return strings.Join(parts, unitSep), nil
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}

// encodeStruct renders "{key = value,…}" with keys sorted so argument lines
// are deterministic.
func encodeStruct(s map[string]any) (string, error) {
	pairs := make([]string, 0, len(s))
	for _, k := range sortedKeys(s) {
		enc, err := encodeValue(s[k])
		if err != nil {
			return "", err
		}
		pairs = append(pairs, htmlEncode(k)+" = "+enc)
	}
	return "{" + strings.Join(pairs, ",") + "}", nil
}

// sortedKeys returns the map's keys in ascending order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// htmlEncode protects control characters, the argument delimiter, and
// non-ASCII text as HTML entities; exiftool's -E reverses it symmetrically
// on write, and the read side decodes returned text the same way.
func htmlEncode(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '"':
			b.WriteString("&quot;")
		case r == '\'':
			b.WriteString("&#39;")
		case r < 0x20 || r == 0x7f || r > 0x7e:
			fmt.Fprintf(&b, "&#%d;", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
