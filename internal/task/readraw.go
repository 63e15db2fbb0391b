package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/backmassage/exiftag/internal/metadata"
)

// ReadRawTask returns exiftool's JSON output for one file as-is: no
// degrouping, no sign correction, no temporal coercion. Useful for callers
// that want exiftool's own rendering, or exotic argument sets.
type ReadRawTask struct {
	base
	SourceFile string
}

func NewReadRawTask(filename string, exiftoolArgs ...string) *ReadRawTask {
	args := slices.Clone(exiftoolArgs)
	if !slices.Contains(args, "-json") {
		args = append([]string{"-json"}, args...)
	}
	sourceFile := resolvePath(filename)
	args = append(args, sourceFile)
	return &ReadRawTask{base: base{args: args}, SourceFile: sourceFile}
}

func (t *ReadRawTask) Parse(stdout string, runErr error) (metadata.Raw, error) {
	var docs []metadata.Raw
	if err := json.Unmarshal([]byte(stdout), &docs); err != nil || len(docs) == 0 {
		log.Warn().Err(runErr).Str("file", t.SourceFile).Msg("readraw: invalid exiftool JSON")
		if runErr != nil {
			return nil, runErr
		}
		if err == nil {
			err = errors.New("empty document")
		}
		return nil, fmt.Errorf("parse exiftool JSON: %w", err)
	}
	return docs[0], nil
}
