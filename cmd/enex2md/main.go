// Package main provides the entry point for the enex2md CLI.
//
// enex2md converts Evernote ENEX exports into a folder of Markdown notes
// with a deduplicated media directory.
//
// Usage:
//
//	enex2md convert -o <dir> <archive.enex>...
//	enex2md history
//
// See --help for all available options.
package main

// main is the entry point for enex2md.
func main() {
	Execute()
}
