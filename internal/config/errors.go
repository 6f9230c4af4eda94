package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoArchive is returned when no ENEX file is given.
	ErrNoArchive = errors.New("no archive specified: provide one or more .enex files")

	// ErrNoOutputDir is returned when neither --output nor the config file
	// names an output directory.
	ErrNoOutputDir = errors.New("no output directory specified: use --output")

	// ErrInvalidMediaDir is returned when the media directory is empty or
	// would escape the output directory.
	ErrInvalidMediaDir = errors.New("invalid media directory: must be a relative path inside the output directory")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidLogFormat is returned for log formats other than text and json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrNoDBDir is returned when history is enabled without a database directory.
	ErrNoDBDir = errors.New("no database directory specified")

	// ErrDuplicateOutputDir is returned when two archives would be written
	// to the same directory.
	ErrDuplicateOutputDir = errors.New("archives share an output directory")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
