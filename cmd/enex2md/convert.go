package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/enex2md/internal/config"
	"github.com/nao1215/enex2md/internal/database"
	"github.com/nao1215/enex2md/internal/log"
	"github.com/nao1215/enex2md/internal/media"
	"github.com/nao1215/enex2md/internal/model"
	"github.com/nao1215/enex2md/internal/pipeline"
	"github.com/nao1215/enex2md/internal/report"
	"github.com/nao1215/enex2md/internal/vault"
)

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [archive.enex]...",
		Short: "Convert ENEX archives to Markdown",
		Long: `Convert reads Evernote export archives and writes one Markdown file per note.

Attachments are written to a media directory inside the output directory,
named after the MD5 digest of their content, so an attachment shared by
several notes is stored once. Next to the notes, index.md lists everything
that was written and manifest.json describes the export for other tools.

With several archives, each one is written to its own subdirectory of the
output directory, named after the archive file.

Examples:
  # Convert one archive into ./notes
  enex2md convert -o notes Recipes.enex

  # Convert several archives, two at a time
  enex2md convert -o vault -n 2 Recipes.enex Travel.enex

  # Keep going when a note cannot be converted
  enex2md convert -o notes -k Broken.enex

  # Add YAML front matter and check images for GPS data
  enex2md convert -o notes --front-matter --exif-check Photos.enex

Configuration file (.enex2md) example:
  output_dir: notes
  defaults:
    front_matter: true
  archives:
    Journal.enex:
      output: journal
      continue_on_error: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runConvertCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Directory to write notes to")
	cmd.Flags().String("media-dir", config.DefaultMediaDir,
		"Attachment directory, relative to the output directory")

	// Conversion flags
	cmd.Flags().Bool("front-matter", false,
		"Prepend YAML front matter (title, dates, tags) to every note")
	cmd.Flags().BoolP("continue-on-error", "k", false,
		"Skip notes and attachments that cannot be converted")
	cmd.Flags().Bool("exif-check", false,
		"Report images with identifying EXIF metadata")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of archives converted at the same time")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .enex2md in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Print the export summary as JSON")
	cmd.Flags().Bool("no-index", false,
		"Do not write index.md")
	cmd.Flags().Bool("no-manifest", false,
		"Do not write manifest.json")
	cmd.Flags().Bool("no-history", false,
		"Do not record the export in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format: text or json")

	return cmd
}

// runConvertCmd executes the convert command.
func runConvertCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, counter := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
	slog.SetDefault(logger)

	// Cancel the conversion on interrupt
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runConvert(ctx, cfg, logger, cmd.OutOrStdout())

	if n := counter.Count(slog.LevelWarn); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d warning(s) logged\n", n)
	}
	return err
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// cobra command flags, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is only an error when the user named one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.ApplyTo(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	stringFlags := map[string]*string{
		"output":     &cfg.OutputDir,
		"media-dir":  &cfg.MediaDir,
		"db-dir":     &cfg.DBDir,
		"log-format": &cfg.LogFormat,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}

	negated := map[string]*bool{
		"no-index":    &cfg.WriteIndex,
		"no-manifest": &cfg.WriteManifest,
		"no-history":  &cfg.SaveToDB,
	}
	for name, dst := range negated {
		if !flags.Changed(name) {
			continue
		}
		off, err := flags.GetBool(name)
		if err != nil {
			return nil, err
		}
		*dst = !off
	}

	overrides := map[string]**bool{
		"front-matter":      &cfg.Overrides.FrontMatter,
		"continue-on-error": &cfg.Overrides.ContinueOnError,
		"exif-check":        &cfg.Overrides.EXIFCheck,
	}
	for name, dst := range overrides {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return nil, err
		}
		*dst = &v
	}

	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Archives = uniqueArchives(args)

	return cfg, nil
}

// uniqueArchives drops repeated archive paths, keeping the first occurrence.
func uniqueArchives(args []string) []string {
	seen := make(map[string]bool, len(args))
	archives := make([]string, 0, len(args))
	for _, a := range args {
		key := filepath.Clean(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		archives = append(archives, a)
	}
	return archives
}

// runConvert converts every archive of cfg and prints a summary per archive.
// It fails when any archive failed.
func runConvert(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	logger.Info("starting conversion",
		"archives", cfg.Archives,
		"output", cfg.OutputDir,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.ExportDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	c := newConverter(cfg, logger)
	bp := pipeline.NewBatchProcessor(
		c.newPipeline,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()

	var (
		mu     sync.Mutex
		failed int
	)
	err := bp.ProcessBatchWithCallback(ctx, cfg.Archives, func(r *model.ExportReport, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if !r.Succeeded() {
			failed++
		}

		if err := c.writeReports(r); err != nil {
			logger.Error("failed to write reports", "archive", r.Archive, "error", err)
		}

		if err := printSummary(out, cfg, r); err != nil {
			logger.Error("failed to print summary", "archive", r.Archive, "error", err)
		}

		// Interrupted exports are recorded too.
		if err := saveExport(context.WithoutCancel(ctx), db, r, logger); err != nil {
			logger.Error("failed to save export", "archive", r.Archive, "error", err)
		}
	})
	if err != nil {
		return err
	}

	if len(cfg.Archives) > 1 {
		fmt.Fprintf(out, "\nConverted %d archive(s) in %s\n",
			len(cfg.Archives)-failed, time.Since(startTime).Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d archive(s) failed", failed, len(cfg.Archives))
	}
	return nil
}

// converter builds one pipeline and vault per archive and remembers the
// vaults so reports can be written next to the notes.
type converter struct {
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.Mutex
	vaults map[string]*vault.Vault
}

func newConverter(cfg *config.Config, logger *slog.Logger) *converter {
	return &converter{
		cfg:    cfg,
		logger: logger,
		vaults: make(map[string]*vault.Vault),
	}
}

// newPipeline is the pipeline.Factory of the batch: every archive gets its
// own registry and vault.
func (c *converter) newPipeline(archive string) (*pipeline.Pipeline, error) {
	dir := c.cfg.ArchiveOutputDir(archive)

	v, err := vault.New(dir, filepath.ToSlash(c.cfg.MediaDir))
	if err != nil {
		return nil, err
	}
	if c.cfg.WriteIndex {
		v.Reserve(trimExt(report.IndexFileName))
	}

	c.mu.Lock()
	c.vaults[archive] = v
	c.mu.Unlock()

	ac := c.cfg.ArchiveConfig(archive)
	registry := media.NewRegistry(nil, media.WithDir(filepath.ToSlash(c.cfg.MediaDir)))

	return pipeline.New(registry, v, v,
		pipeline.WithLogger(c.logger.With("archive", filepath.Base(archive))),
		pipeline.WithContinueOnError(config.Enabled(ac.ContinueOnError)),
		pipeline.WithFrontMatter(config.Enabled(ac.FrontMatter)),
		pipeline.WithEXIFCheck(config.Enabled(ac.EXIFCheck)),
		pipeline.WithOutputDir(dir),
	), nil
}

func (c *converter) vault(archive string) *vault.Vault {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vaults[archive]
}

// reportFile buffers one report file until every writer has succeeded.
type reportFile struct {
	name string
	buf  bytes.Buffer
}

// writeReports writes index.md and manifest.json into the output directory
// of r. Archives whose output directory could not be prepared are skipped.
func (c *converter) writeReports(r *model.ExportReport) error {
	v := c.vault(r.Archive)
	if v == nil {
		return nil
	}

	files := make([]*reportFile, 0, 2)
	writers := make([]report.Writer, 0, 2)
	if c.cfg.WriteIndex {
		f := &reportFile{name: report.IndexFileName}
		files = append(files, f)
		writers = append(writers, report.NewMarkdownWriter(&f.buf))
	}
	if c.cfg.WriteManifest {
		f := &reportFile{name: report.ManifestFileName}
		files = append(files, f)
		writers = append(writers, report.NewManifestWriter(&f.buf, getVersion(), report.WithPrettyPrint()))
	}
	if len(writers) == 0 {
		return nil
	}

	if _, err := report.NewMultiWriter(writers...).Write(r); err != nil {
		return fmt.Errorf("failed to render reports: %w", err)
	}
	for _, f := range files {
		if err := v.WriteFile(f.name, f.buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// printSummary prints the summary of one archive in the requested format.
func printSummary(out io.Writer, cfg *config.Config, r *model.ExportReport) error {
	var w report.Writer
	if cfg.JSONReport {
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(r)
	return err
}

// saveExport saves the report to the database if enabled.
// If db is nil, this function is a no-op.
func saveExport(ctx context.Context, db *database.ExportDB, r *model.ExportReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveExportReport(ctx, r)
	if err != nil {
		return err
	}

	logger.Info("export saved to database", "archive", r.Archive, "id", id)
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
