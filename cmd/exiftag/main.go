// Command exiftag reads, writes, and repairs file metadata by driving the
// external exiftool binary, printing normalized records as JSON. The sniff
// subcommand decodes EXIF locally instead, for cheap triage over many files.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/backmassage/exiftag/internal/check"
	"github.com/backmassage/exiftag/internal/exiftool"
	"github.com/backmassage/exiftag/internal/metadata"
	"github.com/backmassage/exiftag/internal/scan"
	"github.com/backmassage/exiftag/internal/sniff"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

var (
	verbose      bool
	exiftoolPath string

	client *exiftool.Client
)

var rootCmd = &cobra.Command{
	Use:           "exiftag",
	Short:         "Typed metadata reads and writes on top of exiftool",
	Version:       version + " (" + commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		client = &exiftool.Client{Path: exiftoolPath}
	},
}

var (
	readGroups  bool
	readNumeric []string
	readRaw     bool
)

var readCmd = &cobra.Command{
	Use:   "read FILE...",
	Short: "Read all tags of each file as a normalized JSON record",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, file := range args {
			var doc any
			var err error
			if readRaw {
				doc, err = client.ReadRaw(cmd.Context(), file)
			} else {
				var optional []string
				if readGroups {
					optional = append(optional, "-G")
				}
				doc, err = client.Read(cmd.Context(), file, readNumeric, optional...)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if err := printJSON(doc); err != nil {
				return err
			}
		}
		return nil
	},
}

var writeDeletes []string

var writeCmd = &cobra.Command{
	Use:   "write FILE Tag=Value...",
	Short: "Apply tag assignments to a file",
	Long: `Apply tag assignments to a file.

Values are parsed as JSON when possible (numbers, lists, objects) and taken
as plain strings otherwise. Append '#' to a tag name to have exiftool
interpret the value numerically. --delete removes a tag entirely.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		tags := make(map[string]any)
		for _, assignment := range args[1:] {
			key, raw, ok := strings.Cut(assignment, "=")
			if !ok || key == "" {
				return fmt.Errorf("expected Tag=Value, got %q", assignment)
			}
			tags[key] = parseValue(raw)
		}
		for _, tag := range writeDeletes {
			tags[tag] = nil
		}
		if len(tags) == 0 {
			return fmt.Errorf("nothing to write: no assignments or deletions given")
		}
		return client.Write(cmd.Context(), file, tags)
	},
}

var deleteAllCmd = &cobra.Command{
	Use:   "delete-all FILE",
	Short: "Strip every metadata tag from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.DeleteAllTags(cmd.Context(), args[0], nil)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract TAG SRC DEST",
	Short: "Extract a binary tag (thumbnail, preview) to a file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, err := client.ExtractBinary(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if reason != "" {
			return fmt.Errorf("%s has no %s: %s", args[1], args[0], reason)
		}
		return nil
	},
}

var rewriteRepair bool

var rewriteCmd = &cobra.Command{
	Use:   "rewrite SRC DEST",
	Short: "Strip and rebuild all metadata structures into a new file",
	Long: `Strip and rebuild all metadata structures into a new file.

This is the canonical repair for files whose metadata exiftool refuses to
update in place. --repair additionally fixes maker-note offsets.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.RewriteAllTags(cmd.Context(), args[0], args[1], rewriteRepair)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Report the exiftool version in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := client.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var sniffCmd = &cobra.Command{
	Use:   "sniff FILE...",
	Short: "Read EXIF locally without invoking exiftool",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, file := range args {
			if !sniff.IsSniffable(file) {
				return fmt.Errorf("%s: format not supported locally; use read", file)
			}
			rec, err := sniff.Sniff(file)
			if err != nil {
				return err
			}
			if err := printJSON(rec); err != nil {
				return err
			}
		}
		return nil
	},
}

var scanErrorsOnly bool

var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "Read metadata for every media file under a directory",
	Long: `Read metadata for every media file under a directory.

Files the local EXIF decoder understands are read in-process; everything
else goes through exiftool. Unreadable files are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := scan.Scan(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "exiftag: %s: %v\n", r.Path, r.Err)
				continue
			}
			if scanErrorsOnly {
				continue
			}
			if err := printJSON(r.Record); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files unreadable", failed, len(results))
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify the exiftool installation is usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := check.CheckDeps(cmd.Context(), client); err != nil {
			return err
		}
		v, err := client.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("exiftool %s ok\n", v)
		return nil
	},
}

// parseValue decodes JSON shapes (numbers, lists, objects, null) and falls
// back to the literal string. Objects become tag structs.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	if m, ok := v.(map[string]any); ok {
		return metadata.Struct(m)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return v
}

func printJSON(doc any) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&exiftoolPath, "exiftool", "", "path to the exiftool binary (default: $PATH)")

	readCmd.Flags().BoolVarP(&readGroups, "groups", "G", false, "prefix tag names with their group")
	readCmd.Flags().StringSliceVar(&readNumeric, "numeric", nil, "tags to render numerically")
	readCmd.Flags().BoolVar(&readRaw, "raw", false, "print exiftool's JSON without normalization")

	writeCmd.Flags().StringArrayVar(&writeDeletes, "delete", nil, "tag to delete (repeatable)")

	rewriteCmd.Flags().BoolVar(&rewriteRepair, "repair", false, "also repair maker-note offsets (-F)")

	scanCmd.Flags().BoolVar(&scanErrorsOnly, "errors-only", false, "report unreadable files without printing records")

	rootCmd.AddCommand(readCmd, writeCmd, deleteAllCmd, extractCmd, rewriteCmd, versionCmd, sniffCmd, scanCmd, doctorCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "exiftag: %v\n", err)
		os.Exit(1)
	}
}
