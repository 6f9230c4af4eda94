package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/enex2md/internal/config"
	"github.com/nao1215/enex2md/internal/database"
	"github.com/nao1215/enex2md/internal/report"
)

// NewHistoryCmd creates the history command.
// This command lists exports stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past exports",
		Long: `History lists the exports recorded by 'enex2md convert'.

Every conversion is stored with the notes and attachments it wrote. Use
--id to show the full summary of one export, or --media to find where an
attachment (by its MD5 fingerprint, the file name in the media directory)
was written before.

Examples:
  # List the 20 most recent exports
  enex2md history

  # List every export
  enex2md history -n 0

  # Show one export in detail
  enex2md history --id 3

  # Find an attachment
  enex2md history --media d41d8cd98f00b204e9800998ecf8427e`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Number of exports to list (0 lists all)")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the export with this ID (see the list for IDs)")
	cmd.Flags().StringP("media", "m", "",
		"Find the exports that wrote the attachment with this fingerprint")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	fingerprint, err := flags.GetString("media")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	if id != 0 && fingerprint != "" {
		return errors.New("--id and --media cannot be used together")
	}

	// Without a database nothing was exported yet; do not create one.
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, fs.ErrNotExist) {
		printNoHistory(cmd.OutOrStdout())
		return nil
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case id != 0:
		return showExport(ctx, out, db, id, jsonOutput)
	case fingerprint != "":
		return findMedia(ctx, out, db, strings.ToLower(fingerprint), jsonOutput)
	default:
		return listExports(ctx, out, db, limit, jsonOutput)
	}
}

// listExports prints the most recent exports.
func listExports(ctx context.Context, out io.Writer, db *database.ExportDB, limit int, jsonOutput bool) error {
	exports, err := db.ListExports(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get export history: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, exports)
	}

	if len(exports) == 0 {
		printNoHistory(out)
		return nil
	}

	fmt.Fprintf(out, "Export history (%d exports):\n\n", len(exports))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-6s  %-6s  %s\n", "ID", "Date", "Notes", "Media", "Diag", "Archive")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, e := range exports {
		archive := e.Archive
		if !e.Succeeded() {
			archive += " (failed)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-6d  %-6d  %-6d  %s\n",
			e.ID,
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Notes,
			e.Media,
			e.Diagnostics,
			archive,
		)
	}

	fmt.Fprintln(out, "\nUse 'enex2md history --id <id>' to show an export in detail.")
	return nil
}

// showExport prints one stored export.
func showExport(ctx context.Context, out io.Writer, db *database.ExportDB, id int64, jsonOutput bool) error {
	r, err := db.GetExportByID(ctx, id)
	if err != nil {
		return err
	}

	var w report.Writer
	if jsonOutput {
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}
	_, err = w.Write(r)
	return err
}

// findMedia prints where an attachment was written.
func findMedia(ctx context.Context, out io.Writer, db *database.ExportDB, fingerprint string, jsonOutput bool) error {
	locations, err := db.FindMediaByFingerprint(ctx, fingerprint)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(out, locations)
	}

	if len(locations) == 0 {
		fmt.Fprintf(out, "Attachment %s was not written by any recorded export.\n", fingerprint)
		return nil
	}

	fmt.Fprintf(out, "Attachment %s was written %d time(s):\n\n", fingerprint, len(locations))
	for _, loc := range locations {
		fmt.Fprintf(out, "  [%d] %s\n", loc.ExportID, joinOutput(loc.OutputDir, loc.Path))
		fmt.Fprintf(out, "       from %s\n", loc.Archive)
	}
	return nil
}

func printNoHistory(out io.Writer) {
	fmt.Fprintln(out, "No exports recorded yet.")
	fmt.Fprintln(out, "\nUse 'enex2md convert' to convert an archive.")
}

func joinOutput(dir, rel string) string {
	return filepath.Join(dir, filepath.FromSlash(rel))
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
