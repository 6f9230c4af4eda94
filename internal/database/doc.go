// Package database records the history of exports in SQLite.
//
// Every finished conversion is stored with its notes and media files, so a
// later run can tell where an attachment fingerprint was already written and
// the history command can list past exports. The database is a single file
// opened through modernc.org/sqlite, which needs no cgo.
package database
