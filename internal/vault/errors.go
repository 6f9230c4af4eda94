package vault

import "errors"

var (
	// ErrUnsafePath is returned when a relative path would resolve outside
	// the vault root.
	ErrUnsafePath = errors.New("path escapes the output directory")

	// ErrEmptyRoot is returned when a Vault is created without a root.
	ErrEmptyRoot = errors.New("output directory is empty")
)
