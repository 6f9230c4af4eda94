package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/enex2md/internal/media"
	"github.com/nao1215/enex2md/internal/model"
	"github.com/nao1215/enex2md/internal/vault"
)

func writeArchive(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return path
}

// vaultFactory builds one vault per archive below root.
func vaultFactory(root string) Factory {
	return func(archive string) (*Pipeline, error) {
		out := filepath.Join(root, filepath.Base(archive))
		v, err := vault.New(out, media.DefaultDir)
		if err != nil {
			return nil, err
		}
		return New(pngRegistry(), v, v, WithLogger(discardLogger()), WithOutputDir(out)), nil
	}
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(vaultFactory(t.TempDir()))
		if bp.concurrency != 4 {
			t.Errorf("expected default concurrency 4, got %d", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(vaultFactory(t.TempDir()), WithConcurrency(2))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(vaultFactory(t.TempDir()), WithConcurrency(-1))
		if bp.concurrency != 4 {
			t.Errorf("expected concurrency 4, got %d", bp.concurrency)
		}
	})

	t.Run("applies WithBatchLogger option", func(t *testing.T) {
		t.Parallel()

		logger := discardLogger()
		bp := NewBatchProcessor(vaultFactory(t.TempDir()), WithBatchLogger(logger))
		if bp.logger != logger {
			t.Error("expected custom logger")
		}
	})
}

// TestBatchProcessorProcessBatch tests batch conversion.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("converts every archive with its own registry", func(t *testing.T) {
		t.Parallel()

		in := t.TempDir()
		out := t.TempDir()
		body := `<en-note><en-media hash="` + emptyMD5 + `"/></en-note>`
		a := writeArchive(t, in, "a.enex", archive(note("A", body, resource(""))))
		b := writeArchive(t, in, "b.enex", archive(note("B", body, resource(""))))

		bp := NewBatchProcessor(vaultFactory(out), WithConcurrency(2), WithBatchLogger(discardLogger()))
		reports, err := bp.ProcessBatch(context.Background(), []string{a, b})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
		for i, r := range reports {
			if !r.Succeeded() {
				t.Errorf("report %d failed: %s", i, r.ErrorMessage)
			}
			// Registries are not shared, so each archive writes its own copy.
			if r.MediaWritten() != 1 || r.DuplicateResources != 0 {
				t.Errorf("report %d: expected 1 written media file, got %+v", i, r.Media)
			}
		}
		if reports[0].Archive != a || reports[1].Archive != b {
			t.Error("expected reports in input order")
		}
		if _, err := os.Stat(filepath.Join(out, "a.enex", "a.md")); err != nil {
			t.Errorf("expected note of first archive: %v", err)
		}
	})

	t.Run("a failing archive does not stop the others", func(t *testing.T) {
		t.Parallel()

		in := t.TempDir()
		good := writeArchive(t, in, "good.enex", archive(note("ok", "<en-note>ok</en-note>")))
		bad := writeArchive(t, in, "bad.enex", "<en-export><note>")
		missing := filepath.Join(in, "missing.enex")

		bp := NewBatchProcessor(vaultFactory(t.TempDir()), WithBatchLogger(discardLogger()))
		reports, err := bp.ProcessBatch(context.Background(), []string{bad, good, missing})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reports[0].Succeeded() || reports[2].Succeeded() {
			t.Error("expected malformed and missing archives to fail")
		}
		if !reports[1].Succeeded() || len(reports[1].Notes) != 1 {
			t.Errorf("expected good archive to succeed, got %+v", reports[1])
		}
	})

	t.Run("factory errors are reported", func(t *testing.T) {
		t.Parallel()

		factoryErr := errors.New("no space")
		bp := NewBatchProcessor(func(string) (*Pipeline, error) { return nil, factoryErr },
			WithBatchLogger(discardLogger()))

		reports, err := bp.ProcessBatch(context.Background(), []string{"x.enex"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(reports[0].Error, factoryErr) {
			t.Errorf("expected factory error in report, got %v", reports[0].Error)
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls atomic.Int32
		bp := NewBatchProcessor(func(string) (*Pipeline, error) {
			calls.Add(1)
			return nil, errors.New("unreachable")
		}, WithBatchLogger(discardLogger()))

		_, err := bp.ProcessBatch(ctx, []string{"a.enex", "b.enex"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls.Load() != 0 {
			t.Errorf("expected no conversions, got %d", calls.Load())
		}
	})
}

// TestBatchProcessorCallback tests streaming of reports.
func TestBatchProcessorCallback(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	paths := []string{
		writeArchive(t, in, "1.enex", archive(note("one", "<en-note>1</en-note>"))),
		writeArchive(t, in, "2.enex", archive(note("two", "<en-note>2</en-note>"))),
		writeArchive(t, in, "3.enex", archive(note("three", "<en-note>3</en-note>"))),
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]*model.ExportReport)
	)
	bp := NewBatchProcessor(vaultFactory(t.TempDir()), WithBatchLogger(discardLogger()))
	err := bp.ProcessBatchWithCallback(context.Background(), paths, func(r *model.ExportReport, i int) {
		mu.Lock()
		seen[i] = r
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != len(paths) {
		t.Fatalf("expected %d callbacks, got %d", len(paths), len(seen))
	}
	for i, p := range paths {
		if seen[i].Archive != p {
			t.Errorf("callback %d: expected archive %q, got %q", i, p, seen[i].Archive)
		}
	}
}
