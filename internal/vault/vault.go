package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/unicode/norm"
)

const (
	// noteExt is appended to every note file name.
	noteExt = ".md"

	// untitled replaces titles that produce an empty slug.
	untitled = "untitled"
)

// PersistResult reports what PersistResource did.
type PersistResult int

const (
	// Written means the file did not exist and was created.
	Written PersistResult = iota + 1

	// Skipped means a file already existed at the path and was left alone.
	Skipped
)

// String returns "written" or "skipped".
func (r PersistResult) String() string {
	switch r {
	case Written:
		return "written"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Vault writes notes and attachments below a root directory.
// It is safe for concurrent use.
type Vault struct {
	root     string
	mediaDir string

	mu   sync.Mutex
	used map[string]bool
}

// New creates the root and media directories if needed and returns a Vault
// for them. mediaDir is relative to root.
func New(root, mediaDir string) (*Vault, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}

	v := &Vault{
		root:     filepath.Clean(root),
		mediaDir: mediaDir,
		used:     make(map[string]bool),
	}

	mediaPath, err := v.resolve(mediaDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(mediaPath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	return v, nil
}

// Root returns the vault root directory.
func (v *Vault) Root() string {
	return v.root
}

// MediaDir returns the media directory relative to the root.
func (v *Vault) MediaDir() string {
	return v.mediaDir
}

// WriteNote writes markdown to a file named after title and returns the
// file name relative to the root. Titles that slug to the same name within
// one Vault get "-2", "-3", ... suffixes.
func (v *Vault) WriteNote(title, markdown string) (string, error) {
	name := v.reserve(Slug(title))

	path := filepath.Join(v.root, name)
	if err := writeAtomic(path, []byte(markdown)); err != nil {
		return "", fmt.Errorf("failed to write note %q: %w", title, err)
	}
	return name, nil
}

// Reserve marks note base names (without extension) as taken, so notes
// titled like them get a suffix instead.
func (v *Vault) Reserve(bases ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, b := range bases {
		v.used[b] = true
	}
}

// WriteFile atomically writes data to relPath, replacing any existing file.
func (v *Vault) WriteFile(relPath string, data []byte) error {
	path, err := v.resolve(relPath)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

// PersistResource writes data to relPath unless a file already exists there.
// relPath is slash-separated and relative to the root.
func (v *Vault) PersistResource(relPath string, data []byte) (PersistResult, error) {
	path, err := v.resolve(relPath)
	if err != nil {
		return 0, err
	}

	if _, err := os.Stat(path); err == nil {
		return Skipped, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return Written, nil
}

// Slug returns the note file base name for title, without extension.
func Slug(title string) string {
	s, err := slug.Normalize(norm.NFC.String(strings.TrimSpace(title)))
	if err != nil || s == "" {
		return untitled
	}
	return s
}

// reserve returns a file name for base that no earlier note of this vault
// has used.
func (v *Vault) reserve(base string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	candidate := base
	for n := 2; v.used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	v.used[candidate] = true
	return candidate + noteExt
}

// resolve maps a slash-separated relative path to a path below the root.
func (v *Vault) resolve(relPath string) (string, error) {
	local := filepath.FromSlash(relPath)
	if local != "" && !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, relPath)
	}
	return filepath.Join(v.root, local), nil
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
