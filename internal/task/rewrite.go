package task

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reRewriteSuccess = regexp.MustCompile(`(?i)^\s*1 image files creat`)
	reHardError      = regexp.MustCompile(`(?i)\berror\b`)
	reWarningWord    = regexp.MustCompile(`(?i)\bwarning\b`)
)

// RewriteAllTagsTask strips and rebuilds every tag structure in place,
// repairing files whose metadata exiftool otherwise refuses to update.
type RewriteAllTagsTask struct {
	base
}

// NewRewriteAllTagsTask builds the canonical repair invocation:
// -all= -tagsfromfile @ -all:all -unsafe -icc_profile. allowMakerNoteRepair
// adds -F to fix maker-note offsets on the way through.
func NewRewriteAllTagsTask(imgSrc, imgDest string, allowMakerNoteRepair bool) *RewriteAllTagsTask {
	args := []string{
		"-all=",
		"-tagsfromfile",
		"@",
		"-all:all",
		"-unsafe",
		"-icc_profile",
	}
	if allowMakerNoteRepair {
		args = append(args, "-F")
	}
	args = append(args, resolvePath(imgSrc), "-out", resolvePath(imgDest))
	return &RewriteAllTagsTask{base: base{args: args}}
}

// Parse tolerates warnings: rewriting damaged files is exactly when
// exiftool grumbles. Only an error that is not merely a warning, or a
// missing success line, fails the task.
func (t *RewriteAllTagsTask) Parse(stdout string, runErr error) (struct{}, error) {
	if runErr != nil {
		s := runErr.Error()
		if reHardError.MatchString(s) && !reWarningWord.MatchString(s) {
			return struct{}{}, runErr
		}
	}
	if reRewriteSuccess.MatchString(stdout) {
		return struct{}{}, nil
	}
	if runErr != nil {
		return struct{}{}, runErr
	}
	firstLine := strings.SplitN(strings.TrimSpace(stdout), "\n", 2)[0]
	if firstLine == "" {
		firstLine = "missing expected status message"
	}
	return struct{}{}, fmt.Errorf("%s", firstLine)
}
