// Package log builds the slog loggers used by enex2md.
//
// Loggers write text or JSON to the given writer, at Warn level by default
// and Debug in verbose mode. Every logger is backed by a CountingHandler,
// which counts handled records per level so the CLI can tell the user how
// many warnings and errors a conversion produced:
//
//	logger, counter := log.NewLogger(os.Stderr, verbose, log.FormatText)
//	slog.SetDefault(logger)
//	...
//	if n := counter.Count(slog.LevelWarn); n > 0 {
//	    fmt.Fprintf(os.Stderr, "%d warning(s)\n", n)
//	}
package log
