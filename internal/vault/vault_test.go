package vault

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()

	v, err := New(t.TempDir(), "media")
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return v
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates root and media directories", func(t *testing.T) {
		t.Parallel()

		root := filepath.Join(t.TempDir(), "out")
		v, err := New(root, "media")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := os.Stat(filepath.Join(root, "media"))
		if err != nil || !info.IsDir() {
			t.Fatalf("expected media directory, got %v", err)
		}
		if v.Root() != root || v.MediaDir() != "media" {
			t.Errorf("unexpected vault dirs: %q, %q", v.Root(), v.MediaDir())
		}
	})

	t.Run("empty root", func(t *testing.T) {
		t.Parallel()

		if _, err := New("", "media"); !errors.Is(err, ErrEmptyRoot) {
			t.Errorf("expected ErrEmptyRoot, got %v", err)
		}
	})

	t.Run("media dir outside root", func(t *testing.T) {
		t.Parallel()

		if _, err := New(t.TempDir(), "../media"); !errors.Is(err, ErrUnsafePath) {
			t.Errorf("expected ErrUnsafePath, got %v", err)
		}
	})
}

func TestWriteNote(t *testing.T) {
	t.Parallel()

	t.Run("writes slugged file", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		name, err := v.WriteNote("Groceries", "[x]Milk\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != "groceries.md" {
			t.Errorf("expected groceries.md, got %q", name)
		}
		got, err := os.ReadFile(filepath.Join(v.Root(), name))
		if err != nil {
			t.Fatalf("failed to read note: %v", err)
		}
		if string(got) != "[x]Milk\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("collisions get numeric suffixes", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		want := []string{"hello-world.md", "hello-world-2.md", "hello-world-3.md"}
		for i, w := range want {
			name, err := v.WriteNote("Hello World", "body")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != w {
				t.Errorf("note %d: expected %q, got %q", i, w, name)
			}
		}
	})

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		name, err := v.WriteNote("   ", "body")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != "untitled.md" {
			t.Errorf("expected untitled.md, got %q", name)
		}
	})

	t.Run("concurrent writers never share a name", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			names = make(map[string]bool)
		)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				name, err := v.WriteNote("Same", "x")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				names[name] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		if len(names) != 10 {
			t.Errorf("expected 10 distinct names, got %d", len(names))
		}
	})
}

func TestPersistResource(t *testing.T) {
	t.Parallel()

	t.Run("written then skipped", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		rel := "media/d41d8cd98f00b204e9800998ecf8427e.png"

		res, err := v.PersistResource(rel, []byte("first"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != Written {
			t.Errorf("expected Written, got %s", res)
		}

		res, err = v.PersistResource(rel, []byte("second"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != Skipped {
			t.Errorf("expected Skipped, got %s", res)
		}

		got, err := os.ReadFile(filepath.Join(v.Root(), filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("failed to read resource: %v", err)
		}
		if string(got) != "first" {
			t.Errorf("expected existing file to be kept, got %q", got)
		}
	})

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		if _, err := v.PersistResource("attachments/2024/a.pdf", []byte("%PDF-")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(v.Root(), "attachments", "2024", "a.pdf")); err != nil {
			t.Errorf("expected file to exist: %v", err)
		}
	})

	t.Run("rejects paths outside the root", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		for _, rel := range []string{"../escape.png", "/etc/passwd", "media/../../x"} {
			if _, err := v.PersistResource(rel, []byte("x")); !errors.Is(err, ErrUnsafePath) {
				t.Errorf("%q: expected ErrUnsafePath, got %v", rel, err)
			}
		}
	})

	t.Run("leaves no temporary files", func(t *testing.T) {
		t.Parallel()

		v := newTestVault(t)
		if _, err := v.PersistResource("media/a.gif", []byte("GIF89a")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		entries, err := os.ReadDir(filepath.Join(v.Root(), "media"))
		if err != nil {
			t.Fatalf("failed to list media: %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "a.gif" {
			t.Errorf("unexpected media entries: %v", entries)
		}
	})
}

func TestPersistResultString(t *testing.T) {
	t.Parallel()

	if Written.String() != "written" || Skipped.String() != "skipped" || PersistResult(0).String() != "unknown" {
		t.Error("unexpected PersistResult strings")
	}
}

// TestReserve tests that reserved names are never used for notes.
func TestReserve(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	v.Reserve("index")

	name, err := v.WriteNote("Index", "# Index\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "index-2.md" {
		t.Errorf("expected index-2.md, got %q", name)
	}
}

// TestWriteFile tests atomic replacement of report files.
func TestWriteFile(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	for _, content := range []string{"first", "second"} {
		if err := v.WriteFile("index.md", []byte(content)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(v.Root(), "index.md"))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}

	if err := v.WriteFile("../outside.md", []byte("x")); !errors.Is(err, ErrUnsafePath) {
		t.Errorf("expected ErrUnsafePath, got %v", err)
	}
}
