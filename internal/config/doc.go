// Package config provides configuration structures and utilities for enex2md.
// It defines where converted notes and media are written, how the converter
// reacts to broken content, and which reports are produced.
package config
