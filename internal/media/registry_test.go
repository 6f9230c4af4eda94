package media

import (
	"errors"
	"sync"
	"testing"
)

var (
	pngPayload  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	gifPayload  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	jpegPayload = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	pdfPayload  = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	svgPayload  = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	bmpPayload  = []byte("BM\x3a\x00\x00\x00\x00\x00\x00\x00\x36\x00\x00\x00\x28\x00\x00\x00")
)

func staticDetector(mimeType string) Detector {
	return DetectorFunc(func([]byte) string { return mimeType })
}

func TestSnifferDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantExt string
	}{
		{name: "empty payload", data: []byte{}, want: MIMEEmpty, wantExt: "txt"},
		{name: "png", data: pngPayload, want: "image/png", wantExt: "png"},
		{name: "gif", data: gifPayload, want: "image/gif", wantExt: "gif"},
		{name: "jpeg", data: jpegPayload, want: "image/jpeg", wantExt: "jpeg"},
		{name: "pdf", data: pdfPayload, want: "application/pdf", wantExt: "pdf"},
		{name: "svg", data: svgPayload, want: "image/svg+xml", wantExt: "svg"},
		{name: "bmp", data: bmpPayload, want: "image/bmp", wantExt: "bmp"},
	}

	s := NewSniffer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.Detect(tt.data)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			ext, ok := Extension(got)
			if !ok || ext != tt.wantExt {
				t.Errorf("expected extension %q, got %q (ok=%v)", tt.wantExt, ext, ok)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime   string
		want   string
		wantOK bool
	}{
		{"application/x-empty", "txt", true},
		{"image/gif", "gif", true},
		{"image/jpeg", "jpeg", true},
		{"image/png", "png", true},
		{"image/svg", "svg", true},
		{"image/svg+xml", "svg", true},
		{"image/x-ms-bmp", "bmp", true},
		{"application/pdf", "pdf", true},
		{"IMAGE/PNG", "png", true},
		{"image/svg+xml; charset=utf-8", "svg", true},
		{"text/plain", "", false},
		{"application/zip", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Extension(tt.mime)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Extension(%q) = %q, %v; want %q, %v", tt.mime, got, ok, tt.want, tt.wantOK)
		}
	}

	if len(SupportedTypes()) != len(extensions) {
		t.Errorf("expected %d supported types, got %d", len(extensions), len(SupportedTypes()))
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("content addressed path", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(staticDetector("image/png"))
		rec, created, err := r.Register([]byte{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !created {
			t.Error("expected first registration to create a record")
		}
		if rec.Fingerprint != "d41d8cd98f00b204e9800998ecf8427e" {
			t.Errorf("unexpected fingerprint %q", rec.Fingerprint)
		}
		if rec.RelativePath != "media/d41d8cd98f00b204e9800998ecf8427e.png" {
			t.Errorf("unexpected path %q", rec.RelativePath)
		}
		if rec.MIME != "image/png" {
			t.Errorf("expected mime image/png, got %q", rec.MIME)
		}
		if len(rec.Checksum) != 64 {
			t.Errorf("expected 64 hex chars checksum, got %q", rec.Checksum)
		}
	})

	t.Run("identical bytes yield identical path", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(nil)
		first, created1, err := r.Register(pngPayload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, created2, err := r.Register(append([]byte(nil), pngPayload...))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("expected identical records, got %+v and %+v", first, second)
		}
		if !created1 || created2 {
			t.Errorf("expected created=true then false, got %v then %v", created1, created2)
		}
		if r.Len() != 1 {
			t.Errorf("expected 1 record, got %d", r.Len())
		}
	})

	t.Run("deterministic across registries", func(t *testing.T) {
		t.Parallel()

		a, _, errA := NewRegistry(nil).Register(gifPayload)
		b, _, errB := NewRegistry(nil).Register(gifPayload)
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v, %v", errA, errB)
		}
		if a.RelativePath != b.RelativePath {
			t.Errorf("expected same path, got %q and %q", a.RelativePath, b.RelativePath)
		}
	})

	t.Run("duplicate fingerprint does not sniff again", func(t *testing.T) {
		t.Parallel()

		calls := 0
		r := NewRegistry(DetectorFunc(func([]byte) string {
			calls++
			return "image/gif"
		}))
		for range 3 {
			if _, _, err := r.Register(gifPayload); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if calls != 1 {
			t.Errorf("expected detector to run once, ran %d times", calls)
		}
	})

	t.Run("unsupported media type is rejected", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(nil)
		_, created, err := r.Register([]byte("just some plain text"))
		if !errors.Is(err, ErrUnsupportedMediaType) {
			t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
		}
		if created {
			t.Error("expected no record to be created")
		}
		if _, ok := r.Lookup(Fingerprint([]byte("just some plain text"))); ok {
			t.Error("expected no path for rejected payload")
		}
		if r.Len() != 0 {
			t.Errorf("expected empty registry, got %d", r.Len())
		}
	})

	t.Run("custom media dir", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(staticDetector("application/pdf"), WithDir("attachments"))
		rec, _, err := r.Register(pdfPayload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "attachments/" + Fingerprint(pdfPayload) + ".pdf"
		if rec.RelativePath != want {
			t.Errorf("expected %q, got %q", want, rec.RelativePath)
		}
		if r.Dir() != "attachments" {
			t.Errorf("expected dir 'attachments', got %q", r.Dir())
		}
	})
}

func TestRegistryLookupAndRecords(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	payloads := [][]byte{pngPayload, gifPayload, pdfPayload}
	for _, p := range payloads {
		if _, _, err := r.Register(p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records := r.Records()
	if len(records) != len(payloads) {
		t.Fatalf("expected %d records, got %d", len(payloads), len(records))
	}
	for i, p := range payloads {
		if records[i].Fingerprint != Fingerprint(p) {
			t.Errorf("record %d out of registration order", i)
		}
		path, ok := r.Lookup(Fingerprint(p))
		if !ok || path != records[i].RelativePath {
			t.Errorf("lookup mismatch for record %d: %q, %v", i, path, ok)
		}
		rec, ok := r.Record(Fingerprint(p))
		if !ok || rec.Size != len(p) {
			t.Errorf("record mismatch for %d: %+v", i, rec)
		}
	}

	if _, ok := r.Lookup("0123456789abcdef0123456789abcdef"); ok {
		t.Error("expected unknown fingerprint lookup to fail")
	}
}

func TestRegistryConcurrentRegister(t *testing.T) {
	t.Parallel()

	r := NewRegistry(staticDetector("image/png"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := r.Register(pngPayload)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("expected exactly one creating registration, got %d", createdCount)
	}
}

func TestInspectEXIF(t *testing.T) {
	t.Parallel()

	t.Run("payload without exif", func(t *testing.T) {
		t.Parallel()

		if tags := InspectEXIF(pngPayload); tags != nil {
			t.Errorf("expected no tags, got %v", tags)
		}
	})

	t.Run("garbage payload", func(t *testing.T) {
		t.Parallel()

		if tags := InspectEXIF([]byte("Exif\x00\x00garbage")); tags != nil {
			t.Errorf("expected no tags, got %v", tags)
		}
	})
}

func TestHasEXIFSupport(t *testing.T) {
	t.Parallel()

	if !HasEXIFSupport("image/jpeg") {
		t.Error("expected jpeg to support exif")
	}
	if HasEXIFSupport("application/pdf") {
		t.Error("expected pdf not to support exif")
	}
}
