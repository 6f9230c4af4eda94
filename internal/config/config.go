package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "enex2md"

	// DefaultMediaDir is the attachment directory, relative to the output directory.
	DefaultMediaDir = "media"

	// DefaultConcurrency is the number of archives converted at the same time.
	// A single archive is always converted sequentially.
	DefaultConcurrency = 4

	// DefaultHistoryLimit is the number of exports the history command lists.
	DefaultHistoryLimit = 20

	// LogFormatText selects human-readable log lines.
	LogFormatText = "text"

	// LogFormatJSON selects one JSON object per log line.
	LogFormatJSON = "json"
)

// Config holds all configuration options for enex2md.
// It is populated from defaults, the configuration file and CLI flags, in
// that order, and passed through the application instead of global state.
type Config struct {
	// Archives is the list of ENEX files to convert.
	Archives []string

	// OutputDir is the directory notes are written to. With more than one
	// archive, every archive gets its own subdirectory below it.
	OutputDir string

	// MediaDir is the attachment directory relative to OutputDir.
	// It must stay inside OutputDir.
	MediaDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// Concurrency is the number of archives converted at the same time.
	Concurrency int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .enex2md in the current directory,
	// the user's home directory and the XDG config directory.
	ConfigFilePath string

	// ArchiveConfigs holds per-archive settings loaded from the config file.
	ArchiveConfigs *File

	// Overrides holds per-archive switches given on the command line.
	// Set fields win over ArchiveConfigs for every archive.
	Overrides ArchiveConfig

	// JSONReport prints the export summary as JSON instead of text.
	JSONReport bool

	// WriteIndex writes index.md next to the notes.
	WriteIndex bool

	// WriteManifest writes manifest.json next to the notes.
	WriteManifest bool

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to XDG data directory (~/.local/share/enex2md on Linux).
	DBDir string

	// SaveToDB records finished exports in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MediaDir:       DefaultMediaDir,
		LogFormat:      LogFormatText,
		Concurrency:    DefaultConcurrency,
		ArchiveConfigs: NewFile(),
		WriteIndex:     true,
		WriteManifest:  true,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for enex2md.
// On Linux: ~/.local/share/enex2md
// On macOS: ~/Library/Application Support/enex2md
// On Windows: %LOCALAPPDATA%\enex2md
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for enex2md.
// On Linux: ~/.config/enex2md
// On macOS: ~/Library/Application Support/enex2md
// On Windows: %APPDATA%\enex2md
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Archives) == 0 {
		return ErrNoArchive
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.MediaDir == "" || !filepath.IsLocal(c.MediaDir) {
		return ErrInvalidMediaDir
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	seen := make(map[string]string, len(c.Archives))
	for _, a := range c.Archives {
		dir := c.ArchiveOutputDir(a)
		if prev, ok := seen[dir]; ok {
			return fmt.Errorf("%w: %s and %s both write to %s", ErrDuplicateOutputDir, prev, a, dir)
		}
		seen[dir] = a
	}

	return nil
}

// ArchiveOutputDir returns the directory the notes of archive are written to.
// A single archive is written straight into OutputDir. With several archives,
// each gets a subdirectory named after the archive file, unless the config
// file names one.
func (c *Config) ArchiveOutputDir(archive string) string {
	if ac := c.ArchiveConfig(archive); ac.Output != "" {
		return filepath.Join(c.OutputDir, ac.Output)
	}
	if len(c.Archives) <= 1 {
		return c.OutputDir
	}
	base := filepath.Base(archive)
	return filepath.Join(c.OutputDir, base[:len(base)-len(filepath.Ext(base))])
}

// ArchiveConfig returns the merged settings for archive: file defaults,
// then the file entry for the archive, then command line overrides.
func (c *Config) ArchiveConfig(archive string) ArchiveConfig {
	var result ArchiveConfig
	if c.ArchiveConfigs != nil {
		result = c.ArchiveConfigs.GetArchiveConfig(filepath.Base(archive))
	}
	return mergeArchiveConfig(result, c.Overrides)
}
