// Package scan walks a directory tree and reads metadata for every media
// file found, preferring the local EXIF decoder and falling back to
// exiftool for formats it cannot handle.
package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/backmassage/exiftag/internal/exiftool"
	"github.com/backmassage/exiftag/internal/metadata"
	"github.com/backmassage/exiftag/internal/sniff"
)

// Extensions worth reading metadata from (lowercase, with leading dot).
var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".png":  true,
	".heic": true,
	".dng":  true,
	".cr2":  true,
	".nef":  true,
	".arw":  true,
	".orf":  true,
	".rw2":  true,
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".avi":  true,
	".mkv":  true,
}

// Discover walks inputDir, collects files with media extensions, prunes
// hidden directories, and returns the paths sorted lexicographically for
// deterministic processing order.
func Discover(inputDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if mediaExtensions[ext] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Result pairs one file's record with the error that prevented reading it.
// Exactly one of Record and Err is set.
type Result struct {
	Path   string
	Record *metadata.Record
	Err    error
}

// Scan reads metadata for every discovered file under inputDir. Files the
// local decoder understands never touch exiftool unless local decoding
// fails; per-file failures are reported in the results, not returned, so
// one unreadable file cannot abort a batch.
func Scan(ctx context.Context, c *exiftool.Client, inputDir string) ([]Result, error) {
	files, err := Discover(inputDir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		rec, err := readOne(ctx, c, path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("scan: unreadable file")
			results = append(results, Result{Path: path, Err: err})
			continue
		}
		results = append(results, Result{Path: path, Record: rec})
	}
	return results, nil
}

func readOne(ctx context.Context, c *exiftool.Client, path string) (*metadata.Record, error) {
	if sniff.IsSniffable(path) {
		if rec, err := sniff.Sniff(path); err == nil {
			return rec, nil
		}
		// No EXIF block or a shape the local decoder chokes on; the real
		// tool reads more than the EXIF IFDs.
	}
	return c.Read(ctx, path, nil)
}
