// Package check verifies that the external exiftool installation is usable
// before a batch run depends on it.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/backmassage/exiftag/internal/exiftool"
)

// Sentinel errors returned by CheckDeps when the installation is unusable.
var (
	ErrExiftoolNotFound = errors.New("exiftool not found on PATH")
	ErrExiftoolBroken   = errors.New("exiftool found but -ver failed")
	ErrExiftoolTooOld   = errors.New("exiftool too old")
)

// MinMajorVersion is the oldest exiftool whose -json -struct output and
// write syntax this module is known to handle.
const MinMajorVersion = 10

// CheckDeps is the pre-run validation: the binary must resolve, answer a
// version probe, and be recent enough. Returns a sentinel error on failure.
func CheckDeps(ctx context.Context, c *exiftool.Client) error {
	binary := c.Path
	if binary == "" {
		binary = exiftool.DefaultBinary
	}
	if _, err := exec.LookPath(binary); err != nil {
		return ErrExiftoolNotFound
	}
	v, err := c.Version(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExiftoolBroken, err)
	}
	if major := majorVersion(v); major < MinMajorVersion {
		return fmt.Errorf("%w: have %s, want %d or newer", ErrExiftoolTooOld, v, MinMajorVersion)
	}
	return nil
}

func majorVersion(v string) int {
	head, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
