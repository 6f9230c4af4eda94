package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewExportReport(t *testing.T) {
	t.Parallel()

	r := NewExportReport("notes.enex", "out")

	if r.Archive != "notes.enex" {
		t.Errorf("expected archive 'notes.enex', got %q", r.Archive)
	}
	if r.OutputDir != "out" {
		t.Errorf("expected output dir 'out', got %q", r.OutputDir)
	}
	if r.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if r.Notes == nil || r.Media == nil || r.Diagnostics == nil {
		t.Error("expected slices to be initialized")
	}
	if !r.Succeeded() {
		t.Error("expected fresh report to be successful")
	}
	if r.Duration() != 0 {
		t.Errorf("expected zero duration before Finish, got %v", r.Duration())
	}
}

func TestExportReportCounters(t *testing.T) {
	t.Parallel()

	r := NewExportReport("a.enex", "out")
	r.AddMedia(MediaEntry{Fingerprint: "a", Written: true})
	r.AddMedia(MediaEntry{Fingerprint: "b", Written: false})
	r.AddMedia(MediaEntry{Fingerprint: "c", Written: true})

	if got := r.MediaWritten(); got != 2 {
		t.Errorf("expected 2 written, got %d", got)
	}
	if got := r.MediaSkipped(); got != 1 {
		t.Errorf("expected 1 skipped, got %d", got)
	}

	r.AddDiagnostics(
		Diagnostic{Kind: DiagnosticUnsupportedFeature, Message: "x"},
		Diagnostic{Kind: DiagnosticMalformedContent, Message: "y"},
		Diagnostic{Kind: DiagnosticUnsupportedFeature, Message: "z"},
	)
	if !r.HasDiagnostics() {
		t.Fatal("expected diagnostics")
	}
	counts := r.DiagnosticCounts()
	if counts[DiagnosticUnsupportedFeature] != 2 {
		t.Errorf("expected 2 unsupported_feature, got %d", counts[DiagnosticUnsupportedFeature])
	}
	kinds := r.DiagnosticKinds()
	if len(kinds) != 2 || kinds[0] != DiagnosticMalformedContent {
		t.Errorf("unexpected kinds order: %v", kinds)
	}
}

func TestExportReportError(t *testing.T) {
	t.Parallel()

	r := NewExportReport("a.enex", "out")
	r.SetError(errors.New("boom"))
	r.Finish()

	if r.Succeeded() {
		t.Error("expected failed report")
	}
	if r.ErrorMessage != "boom" {
		t.Errorf("expected error message 'boom', got %q", r.ErrorMessage)
	}
	if r.Duration() < 0 {
		t.Error("expected non-negative duration")
	}
}

func TestExportReportJSON(t *testing.T) {
	t.Parallel()

	r := NewExportReport("a.enex", "out")
	r.AddNote(NoteEntry{Title: "Groceries", File: "groceries.md"})
	r.SetError(errors.New("failed"))
	r.FinishedAt = r.StartedAt.Add(time.Second)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"file":"groceries.md"`) {
		t.Errorf("expected note entry in JSON: %s", out)
	}
	if !strings.Contains(out, `"error":"failed"`) {
		t.Errorf("expected error message in JSON: %s", out)
	}

	var decoded ExportReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Succeeded() {
		t.Error("expected decoded report to keep its error message")
	}
}
