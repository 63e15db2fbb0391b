// Package exiftool runs tasks against the external exiftool binary: one
// process per task, stdout captured for the task's parser, stderr collected
// line by line as the task's warnings. Everything interesting about an
// invocation (arguments, output interpretation) lives in the task package;
// this one only owns the process lifecycle.
package exiftool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/backmassage/exiftag/internal/metadata"
	"github.com/backmassage/exiftag/internal/task"
)

// DefaultBinary is resolved via $PATH.
const DefaultBinary = "exiftool"

// Client locates the exiftool binary. The zero value is usable.
type Client struct {
	// Path overrides the binary location; empty means DefaultBinary.
	Path string
}

func New() *Client { return &Client{} }

func (c *Client) binary() string {
	if c.Path != "" {
		return c.Path
	}
	return DefaultBinary
}

// Run executes one task and hands its output to the task's parser. stderr
// lines become task warnings, not errors: the task decides whether they are
// fatal. A process-level failure (missing binary, nonzero exit, context
// cancellation) is passed to Parse as runErr so each task can classify it.
func Run[R any](ctx context.Context, c *Client, t task.Task[R]) (R, error) {
	args := t.Args()
	log.Debug().Str("binary", c.binary()).Strs("args", args).Msg("exiftool: run")

	cmd := exec.CommandContext(ctx, c.binary(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		runErr = ctxErr
	}

	for _, line := range strings.Split(stderr.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			t.AddError(line)
		}
	}

	return t.Parse(stdout.String(), runErr)
}

// Read reads and normalizes all tags of one file. numericTags are rendered
// numerically (exiftool's -Tag# form); optionalArgs may include -G for
// group-prefixed keys.
func (c *Client) Read(ctx context.Context, filename string, numericTags []string, optionalArgs ...string) (*metadata.Record, error) {
	return Run(ctx, c, task.NewReadTask(filename, numericTags, optionalArgs...))
}

// ReadRaw returns exiftool's own JSON rendering of one file, unnormalized.
func (c *Client) ReadRaw(ctx context.Context, filename string, exiftoolArgs ...string) (metadata.Raw, error) {
	return Run(ctx, c, task.NewReadRawTask(filename, exiftoolArgs...))
}

// Write applies tag updates to one file; a nil value deletes the tag.
// Deletion-only writes against empty or missing targets skip the tool
// entirely (it would refuse with "Nothing to write") and verify the binary
// with a version probe instead, so a missing installation still surfaces.
func (c *Client) Write(ctx context.Context, filename string, tags map[string]any, optionalArgs ...string) error {
	t, noop, err := task.NewWriteTask(filename, tags, optionalArgs...)
	if err != nil {
		return err
	}
	if noop {
		_, err := c.Version(ctx)
		return err
	}
	_, err = Run(ctx, c, t)
	return err
}

// DeleteAllTags strips every tag from the file, then reapplies any given
// retained tags in the same invocation.
func (c *Client) DeleteAllTags(ctx context.Context, filename string, retain map[string]any) error {
	return c.Write(ctx, filename, retain, task.DeleteAllTagsArgs...)
}

// Version reports the exiftool version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	v, err := Run(ctx, c, task.NewVersionTask())
	if err != nil {
		return "", fmt.Errorf("exiftool version: %w", err)
	}
	return v, nil
}

// ExtractBinary writes one binary tag (thumbnail, preview) from imgSrc to
// imgDest. A missing payload is reported as a non-empty reason string with a
// nil error: absence is an answer, not a failure.
func (c *Client) ExtractBinary(ctx context.Context, tagName, imgSrc, imgDest string) (string, error) {
	return Run(ctx, c, task.NewBinaryExtractionTask(tagName, imgSrc, imgDest))
}

// ExtractBinaryToBuffer returns one binary tag's payload in memory.
func (c *Client) ExtractBinaryToBuffer(ctx context.Context, tagName, imgSrc string) ([]byte, error) {
	return Run(ctx, c, task.NewBinaryToBufferTask(tagName, imgSrc))
}

// RewriteAllTags strips and rebuilds all metadata structures of imgSrc into
// imgDest, exiftool's canonical repair for files it refuses to update in
// place. allowMakerNoteRepair additionally fixes maker-note offsets.
func (c *Client) RewriteAllTags(ctx context.Context, imgSrc, imgDest string, allowMakerNoteRepair bool) error {
	_, err := Run(ctx, c, task.NewRewriteAllTagsTask(imgSrc, imgDest, allowMakerNoteRepair))
	return err
}
