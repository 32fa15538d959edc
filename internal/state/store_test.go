package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_CreatesStateTree(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, sub := range []string{".state", ".state/longcot", ".state/artifacts"} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Fatalf("expected %s to exist: %v", sub, err)
		}
	}
	if s.auditLogPath != filepath.Join(dir, ".state", "audit.log") {
		t.Fatalf("unexpected default audit log path: %s", s.auditLogPath)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.LoadSnapshot(); err != nil || ok {
		t.Fatalf("expected no snapshot yet, got ok=%v err=%v", ok, err)
	}

	want := Snapshot{CurrentPipelinePosition: 2, LastConfidence: 0.75, ArtifactCount: 3, CircuitBreakerState: "closed"}
	if err := s.SaveSnapshot(want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadSnapshot()
	if err != nil || !ok {
		t.Fatalf("expected snapshot, ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("snapshot mismatch: got %+v want %+v", got, want)
	}
}

func TestAppendAudit_ProducesOneJSONLinePerEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.AppendAudit(DecisionLogEntry{TaskType: "SCAN", Decision: "approve"}); err != nil {
			t.Fatal(err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, ".state", "audit.log"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 audit lines, got %d", len(lines))
	}
}

func TestAppendSessionContext_AppendsTimestampedBlock(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AppendSessionContext("submitted build login page"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".state", "session_context.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "submitted build login page") {
		t.Fatalf("expected message in session context, got %q", string(data))
	}
	if !strings.HasPrefix(string(data), "## ") {
		t.Fatalf("expected ISO-8601-prefixed block, got %q", string(data))
	}
}

func TestRecordWrite_BacksUpPriorContentAndSupersedes(t *testing.T) {
	s, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.RecordWrite("run-1", "01", "a.ts", []byte("v1"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if first.BackupHash != "" {
		t.Fatal("expected no backup for a new file")
	}

	second, err := s.RecordWrite("run-1", "01", "a.ts", []byte("v2"), []byte("v1"), first.SHA256)
	if err != nil {
		t.Fatal(err)
	}
	if second.BackupHash == "" {
		t.Fatal("expected a backup hash for an overwrite")
	}

	entries, err := s.LoadManifest("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 manifest entries, got %d", len(entries))
	}
	if entries[0].SupersededBy != second.SHA256 {
		t.Fatalf("expected first entry superseded by second, got %q", entries[0].SupersededBy)
	}

	restored, err := s.ReadBackup("run-1", second.BackupHash)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != "v1" {
		t.Fatalf("expected backup content v1, got %q", restored)
	}
}

func TestMarkAllSuperseded_IsIdempotent(t *testing.T) {
	s, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordWrite("run-2", "01", "a.ts", []byte("v1"), nil, ""); err != nil {
		t.Fatal(err)
	}

	if err := s.MarkAllSuperseded("run-2", "rollback"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkAllSuperseded("run-2", "rollback"); err != nil {
		t.Fatal(err)
	}

	entries, err := s.LoadManifest("run-2")
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].SupersededBy != "rollback" {
		t.Fatalf("expected superseded marker, got %q", entries[0].SupersededBy)
	}
}
