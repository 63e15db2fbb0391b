package task

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var reOutputCreated = regexp.MustCompile(`(?i)\b(\d+) output files? created`)

// BinaryExtractionTask extracts one binary tag (thumbnail, preview, JPEG
// from RAW) to a destination file. The payload bytes never pass through
// this process; exiftool writes them directly.
type BinaryExtractionTask struct {
	base
}

func NewBinaryExtractionTask(tagName, imgSrc, imgDest string) *BinaryExtractionTask {
	// %0f prevents exiftool from treating the destination as a format
	// string with an extension substitution.
	args := []string{
		"-b",
		"-" + tagName,
		resolvePath(imgSrc),
		"-w",
		"%0f" + resolvePath(imgDest),
	}
	return &BinaryExtractionTask{base: base{args: args}}
}

// Parse returns "" on success, or the status text as a soft error when the
// payload was missing: the caller gets a reason string without a hard
// failure, since retrying cannot make an absent payload appear.
func (t *BinaryExtractionTask) Parse(stdout string, runErr error) (string, error) {
	s := strings.TrimSpace(stdout)
	m := reOutputCreated.FindStringSubmatch(s)
	if runErr != nil {
		return "", runErr
	}
	if m == nil {
		return "", fmt.Errorf("missing expected status message (got %q)", stdout)
	}
	if m[1] == "1" {
		return "", nil
	}
	return s, nil
}

// BinaryToBufferTask extracts one binary tag into memory. exiftool renders
// binary values in -json mode as "base64:<payload>".
type BinaryToBufferTask struct {
	base
	TagName string
}

func NewBinaryToBufferTask(tagName, imgSrc string) *BinaryToBufferTask {
	args := []string{"-json", "-b", "-" + tagName, resolvePath(imgSrc)}
	return &BinaryToBufferTask{base: base{args: args}, TagName: tagName}
}

const base64Prefix = "base64:"

func (t *BinaryToBufferTask) Parse(stdout string, runErr error) ([]byte, error) {
	var docs []map[string]any
	if err := json.Unmarshal([]byte(stdout), &docs); err != nil || len(docs) == 0 {
		if runErr != nil {
			return nil, runErr
		}
		if strings.TrimSpace(stdout) != "" {
			return nil, fmt.Errorf("%s", strings.TrimSpace(stdout))
		}
		if err == nil {
			err = errors.New("empty document")
		}
		return nil, fmt.Errorf("extract %s: %w", t.TagName, err)
	}
	obj := docs[0]

	if buf, ok := decodeBase64Value(obj[t.TagName]); ok {
		return buf, nil
	}
	// exiftool may have normalized the tag's casing; check the other keys.
	for k, v := range obj {
		if strings.EqualFold(k, t.TagName) {
			if buf, ok := decodeBase64Value(v); ok {
				return buf, nil
			}
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	return nil, fmt.Errorf("%s not found", t.TagName)
}

func decodeBase64Value(v any) ([]byte, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, base64Prefix) {
		return nil, false
	}
	buf, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s[len(base64Prefix):]))
	if err != nil {
		return nil, false
	}
	return buf, true
}
