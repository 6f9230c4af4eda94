package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/enex2md/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "enex2md.db"

// ErrNotFound is returned when a requested export does not exist.
var ErrNotFound = errors.New("export not found")

// ExportDB stores finished exports.
type ExportDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ExportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ExportDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ExportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	edb := &ExportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := edb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return edb, nil
}

// Path returns the database file path.
func (edb *ExportDB) Path() string {
	return edb.dbPath
}

// Close closes the database connection.
func (edb *ExportDB) Close() error {
	return edb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (edb *ExportDB) createTables() error {
	schema := `
	-- One row per converted archive
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		archive TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		note_count INTEGER NOT NULL DEFAULT 0,
		media_count INTEGER NOT NULL DEFAULT 0,
		diagnostic_count INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exports_archive ON exports(archive);
	CREATE INDEX IF NOT EXISTS idx_exports_started ON exports(started_at);

	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		export_id INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		file TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_export ON notes(export_id);

	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		export_id INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
		fingerprint TEXT NOT NULL,
		path TEXT NOT NULL,
		mime TEXT NOT NULL,
		size INTEGER NOT NULL,
		checksum TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_media_export ON media(export_id);
	CREATE INDEX IF NOT EXISTS idx_media_fingerprint ON media(fingerprint);
	`

	_, err := edb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveExportReport stores report with its notes and media in one transaction
// and returns the new export ID.
func (edb *ExportDB) SaveExportReport(ctx context.Context, report *model.ExportReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var finished sql.NullString
	if !report.FinishedAt.IsZero() {
		finished = sql.NullString{String: formatTimestamp(report.FinishedAt), Valid: true}
	}
	var errMsg sql.NullString
	if report.ErrorMessage != "" {
		errMsg = sql.NullString{String: report.ErrorMessage, Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO exports (archive, output_dir, started_at, finished_at, note_count, media_count, diagnostic_count, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Archive,
		report.OutputDir,
		formatTimestamp(report.StartedAt),
		finished,
		len(report.Notes),
		len(report.Media),
		len(report.Diagnostics),
		errMsg,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save export: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read export id: %w", err)
	}

	for _, n := range report.Notes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notes (export_id, title, file) VALUES (?, ?, ?)",
			id, n.Title, n.File,
		); err != nil {
			return 0, fmt.Errorf("failed to save note %q: %w", n.Title, err)
		}
	}

	for _, m := range report.Media {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO media (export_id, fingerprint, path, mime, size, checksum) VALUES (?, ?, ?, ?, ?, ?)",
			id, m.Fingerprint, m.Path, m.MIME, m.Size, m.Checksum,
		); err != nil {
			return 0, fmt.Errorf("failed to save media %s: %w", m.Fingerprint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}

	return id, nil
}

// ExportSummary contains summary information about a stored export.
// It is used for listing history without loading the full report.
type ExportSummary struct {
	// ID is the unique identifier of the export in the database.
	ID int64 `json:"id"`

	// Archive is the converted archive.
	Archive string `json:"archive"`

	// OutputDir is where the notes were written.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the conversion started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the conversion ended.
	FinishedAt time.Time `json:"finished_at"`

	// Notes, Media and Diagnostics are the counts recorded in the report.
	Notes       int `json:"notes"`
	Media       int `json:"media"`
	Diagnostics int `json:"diagnostics"`

	// Error is the fatal error message, empty on success.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the export finished without a fatal error.
func (s ExportSummary) Succeeded() bool {
	return s.Error == ""
}

// ListExports returns the most recent exports first.
// A limit of zero or less returns every export.
func (edb *ExportDB) ListExports(ctx context.Context, limit int) ([]ExportSummary, error) {
	query := `
	SELECT id, archive, output_dir, started_at, finished_at, note_count, media_count, diagnostic_count, error
	FROM exports
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := edb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	results := make([]ExportSummary, 0)
	for rows.Next() {
		var s ExportSummary
		var started string
		var finished, errMsg sql.NullString

		if err := rows.Scan(
			&s.ID,
			&s.Archive,
			&s.OutputDir,
			&started,
			&finished,
			&s.Notes,
			&s.Media,
			&s.Diagnostics,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}

		s.StartedAt = parseTimestamp(started)
		if finished.Valid {
			s.FinishedAt = parseTimestamp(finished.String)
		}
		s.Error = errMsg.String
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetExportByID retrieves a stored report by its database ID.
// ErrNotFound is returned when no export has that ID.
func (edb *ExportDB) GetExportByID(ctx context.Context, id int64) (*model.ExportReport, error) {
	var reportJSON string
	err := edb.db.QueryRowContext(ctx, "SELECT report_json FROM exports WHERE id = ?", id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	var report model.ExportReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// MediaLocation is one place an attachment was written to.
type MediaLocation struct {
	// ExportID identifies the export that wrote the file.
	ExportID int64 `json:"export_id"`

	// Archive is the archive the attachment came from.
	Archive string `json:"archive"`

	// OutputDir is the output directory of that export.
	OutputDir string `json:"output_dir"`

	// Path is the media path relative to OutputDir.
	Path string `json:"path"`

	// Checksum is the SHA3-256 digest of the payload.
	Checksum string `json:"checksum"`
}

// FindMediaByFingerprint returns every recorded location of an attachment,
// newest export first.
func (edb *ExportDB) FindMediaByFingerprint(ctx context.Context, fingerprint string) ([]MediaLocation, error) {
	rows, err := edb.db.QueryContext(ctx, `
	SELECT e.id, e.archive, e.output_dir, m.path, m.checksum
	FROM media m
	JOIN exports e ON e.id = m.export_id
	WHERE m.fingerprint = ?
	ORDER BY e.started_at DESC, e.id DESC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to find media: %w", err)
	}
	defer rows.Close()

	results := make([]MediaLocation, 0)
	for rows.Next() {
		var loc MediaLocation
		if err := rows.Scan(&loc.ExportID, &loc.Archive, &loc.OutputDir, &loc.Path, &loc.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		results = append(results, loc)
	}

	return results, rows.Err()
}

// timestampLayout sorts lexically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
