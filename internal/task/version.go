package task

import (
	"fmt"
	"regexp"
	"strings"
)

var reVersion = regexp.MustCompile(`^\d{1,3}\.\d{1,3}(?:\.\d{1,3})?$`)

// VersionTask reports the exiftool version. It doubles as the no-op
// invocation for deletion-only writes against empty targets.
type VersionTask struct {
	base
}

func NewVersionTask() *VersionTask {
	return &VersionTask{base: base{args: []string{"-ver"}}}
}

func (t *VersionTask) Parse(stdout string, runErr error) (string, error) {
	if runErr != nil {
		return "", runErr
	}
	v := strings.TrimSpace(stdout)
	if !reVersion.MatchString(v) {
		return "", fmt.Errorf("unexpected version %q", v)
	}
	return v, nil
}
