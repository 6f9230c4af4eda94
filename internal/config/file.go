package config

// ArchiveConfig holds settings for a single archive. Nil pointers mean
// "not set" so a per-archive entry can switch a default off again.
type ArchiveConfig struct {
	// Output is the subdirectory of the output directory for this archive.
	Output string `yaml:"output,omitempty"`

	// FrontMatter prepends YAML front matter to every note.
	FrontMatter *bool `yaml:"front_matter,omitempty"`

	// ContinueOnError skips broken notes and attachments instead of aborting.
	ContinueOnError *bool `yaml:"continue_on_error,omitempty"`

	// EXIFCheck reports images carrying identifying EXIF metadata.
	EXIFCheck *bool `yaml:"exif_check,omitempty"`
}

// Enabled returns the value of an optional switch, false when unset.
func Enabled(b *bool) bool {
	return b != nil && *b
}

// File represents the structure of the .enex2md configuration file.
type File struct {
	// OutputDir is used when --output is not given.
	OutputDir string `yaml:"output_dir,omitempty"`

	// MediaDir overrides DefaultMediaDir.
	MediaDir string `yaml:"media_dir,omitempty"`

	// Concurrency overrides DefaultConcurrency.
	Concurrency int `yaml:"concurrency,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format,omitempty"`

	// Index enables index.md.
	Index *bool `yaml:"index,omitempty"`

	// Manifest enables manifest.json.
	Manifest *bool `yaml:"manifest,omitempty"`

	// History enables the export history database.
	History *bool `yaml:"history,omitempty"`

	// Defaults applies to every archive unless overridden in Archives.
	Defaults ArchiveConfig `yaml:"defaults,omitempty"`

	// Archives maps archive file names (e.g. "Recipes.enex") to their settings.
	Archives map[string]ArchiveConfig `yaml:"archives,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Archives: make(map[string]ArchiveConfig)}
}

// GetArchiveConfig returns the configuration for the named archive.
// It merges the archive-specific configuration with defaults.
func (cf *File) GetArchiveConfig(name string) ArchiveConfig {
	override, ok := cf.Archives[name]
	if !ok {
		return cf.Defaults
	}
	return mergeArchiveConfig(cf.Defaults, override)
}

// mergeArchiveConfig returns base with every set field of override applied.
func mergeArchiveConfig(base, override ArchiveConfig) ArchiveConfig {
	result := base
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.FrontMatter != nil {
		result.FrontMatter = override.FrontMatter
	}
	if override.ContinueOnError != nil {
		result.ContinueOnError = override.ContinueOnError
	}
	if override.EXIFCheck != nil {
		result.EXIFCheck = override.EXIFCheck
	}
	return result
}

// ApplyTo copies the global settings of the file into cfg. Flags given on
// the command line are applied afterwards and win.
func (cf *File) ApplyTo(cfg *Config) {
	if cf.OutputDir != "" {
		cfg.OutputDir = cf.OutputDir
	}
	if cf.MediaDir != "" {
		cfg.MediaDir = cf.MediaDir
	}
	if cf.Concurrency != 0 {
		cfg.Concurrency = cf.Concurrency
	}
	if cf.LogFormat != "" {
		cfg.LogFormat = cf.LogFormat
	}
	if cf.Index != nil {
		cfg.WriteIndex = *cf.Index
	}
	if cf.Manifest != nil {
		cfg.WriteManifest = *cf.Manifest
	}
	if cf.History != nil {
		cfg.SaveToDB = *cf.History
	}
	cfg.ArchiveConfigs = cf
}
