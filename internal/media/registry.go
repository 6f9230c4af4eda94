package media

import (
	"crypto/md5" //nolint:gosec // ENML references attachments by MD5; it is an identifier, not a security boundary
	"encoding/hex"
	"fmt"
	"path"
	"sync"

	"golang.org/x/crypto/sha3"
)

// DefaultDir is the media subdirectory, relative to the output directory.
const DefaultDir = "media"

// Record describes one registered attachment.
type Record struct {
	// Fingerprint is the MD5 hex digest of the payload.
	Fingerprint string

	// RelativePath is "{dir}/{fingerprint}.{ext}", always slash-separated.
	RelativePath string

	// MIME is the sniffed media type.
	MIME string

	// Size is the payload length in bytes.
	Size int

	// Checksum is the SHA3-256 hex digest of the payload.
	Checksum string
}

// Registry maps fingerprints to relative paths for one conversion run.
// Entries are only ever added. Register is serialized by a mutex so a
// fingerprint is written at most once; lookups take a read lock.
type Registry struct {
	detector Detector
	dir      string

	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithDir sets the media subdirectory used in relative paths.
func WithDir(dir string) Option {
	return func(r *Registry) {
		if dir != "" {
			r.dir = dir
		}
	}
}

// NewRegistry creates an empty Registry. If detector is nil the default
// Sniffer is used.
func NewRegistry(detector Detector, opts ...Option) *Registry {
	r := &Registry{
		detector: detector,
		dir:      DefaultDir,
		records:  make(map[string]Record),
		order:    make([]string, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.detector == nil {
		r.detector = NewSniffer()
	}

	return r
}

// Fingerprint returns the MD5 hex digest of data.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // see import comment
	return hex.EncodeToString(sum[:])
}

// Register assigns a path to data.
//
// If the fingerprint of data is already known, the existing record is returned
// and created is false. Otherwise the payload is sniffed, an extension is
// looked up and a new record is stored; created is true. A MIME type missing
// from the extension table yields an error wrapping ErrUnsupportedMediaType
// and nothing is stored.
func (r *Registry) Register(data []byte) (rec Record, created bool, err error) {
	fp := Fingerprint(data)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[fp]; ok {
		return existing, false, nil
	}

	mimeType := baseType(r.detector.Detect(data))
	ext, ok := extensions[mimeType]
	if !ok {
		return Record{}, false, fmt.Errorf("%w: %q (fingerprint %s)", ErrUnsupportedMediaType, mimeType, fp)
	}

	sum := sha3.Sum256(data)
	rec = Record{
		Fingerprint:  fp,
		RelativePath: path.Join(r.dir, fp+"."+ext),
		MIME:         mimeType,
		Size:         len(data),
		Checksum:     hex.EncodeToString(sum[:]),
	}
	r.records[fp] = rec
	r.order = append(r.order, fp)

	return rec, true, nil
}

// Lookup returns the relative path registered for a fingerprint.
func (r *Registry) Lookup(fingerprint string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[fingerprint]
	return rec.RelativePath, ok
}

// Record returns the full record for a fingerprint.
func (r *Registry) Record(fingerprint string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[fingerprint]
	return rec, ok
}

// Records returns all records in registration order.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.order))
	for i, fp := range r.order {
		out[i] = r.records[fp]
	}
	return out
}

// Len returns the number of registered fingerprints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Dir returns the media subdirectory.
func (r *Registry) Dir() string {
	return r.dir
}
