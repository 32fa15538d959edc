package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/autoforge/autoforge/internal/reasoning"
	"github.com/autoforge/autoforge/internal/state"
	"github.com/autoforge/autoforge/internal/tool"
)

func TestTrackingDispatcher_RecordsArtifactOnSuccessfulWrite(t *testing.T) {
	root := t.TempDir()
	store, err := state.New(root, "")
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}

	inner := reasoning.Dispatcher(func(_ context.Context, _ string, args json.RawMessage) tool.InvocationResult {
		var pa pathArgs
		_ = json.Unmarshal(args, &pa)
		abs := filepath.Join(root, pa.Path)
		_ = os.MkdirAll(filepath.Dir(abs), 0o755)
		_ = os.WriteFile(abs, []byte("new content"), 0o644)
		return tool.InvocationResult{OK: true}
	})

	d := trackingDispatcher(inner, root, store, "run-1", "02")
	args, _ := json.Marshal(pathArgs{Path: "foo.go"})
	result := d(context.Background(), "file_write", args)
	if !result.OK {
		t.Fatalf("expected a passthrough success, got %+v", result)
	}

	entries, err := store.LoadManifest("run-1")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "foo.go" {
		t.Fatalf("expected one artifact entry for foo.go, got %+v", entries)
	}
}

func TestTrackingDispatcher_PassesThroughNonWriteTools(t *testing.T) {
	root := t.TempDir()
	store, err := state.New(root, "")
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}

	called := false
	inner := reasoning.Dispatcher(func(_ context.Context, name string, _ json.RawMessage) tool.InvocationResult {
		called = true
		if name != "file_read" {
			t.Fatalf("expected file_read passthrough, got %q", name)
		}
		return tool.InvocationResult{OK: true, Value: "contents"}
	})

	d := trackingDispatcher(inner, root, store, "run-1", "02")
	args, _ := json.Marshal(pathArgs{Path: "foo.go"})
	d(context.Background(), "file_read", args)

	if !called {
		t.Fatal("expected the inner dispatcher to be invoked")
	}
	entries, _ := store.LoadManifest("run-1")
	if len(entries) != 0 {
		t.Fatalf("expected no artifact entries for a read, got %+v", entries)
	}
}

func TestTrackingDispatcher_FailedWriteRecordsNothing(t *testing.T) {
	root := t.TempDir()
	store, err := state.New(root, "")
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}

	inner := reasoning.Dispatcher(func(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
		return tool.InvocationResult{OK: false, ErrorMessage: "denied"}
	})

	d := trackingDispatcher(inner, root, store, "run-1", "02")
	args, _ := json.Marshal(pathArgs{Path: "foo.go"})
	d(context.Background(), "file_write", args)

	entries, _ := store.LoadManifest("run-1")
	if len(entries) != 0 {
		t.Fatalf("expected no artifact entries for a failed write, got %+v", entries)
	}
}

func TestRestorePath_RemoveDeletesFile(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "foo.go")
	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := restorePath(root, "foo.go", nil, true); err != nil {
		t.Fatalf("restorePath: %v", err)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Fatal("expected the file to be removed")
	}
}

func TestRestorePath_RemoveOnAlreadyMissingFileIsNotAnError(t *testing.T) {
	root := t.TempDir()
	if err := restorePath(root, "never-existed.go", nil, true); err != nil {
		t.Fatalf("expected no error removing an already-missing path, got %v", err)
	}
}

func TestRestorePath_WritesBackupBytes(t *testing.T) {
	root := t.TempDir()
	if err := restorePath(root, "nested/foo.go", []byte("old content"), false); err != nil {
		t.Fatalf("restorePath: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "nested/foo.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old content" {
		t.Fatalf("expected restored content, got %q", got)
	}
}

func TestArtifactPaths_DeduplicatesInFirstWriteOrder(t *testing.T) {
	mk := func(path string) string {
		b, _ := json.Marshal(pathArgs{Path: path})
		return string(b)
	}
	history := []reasoning.Step{
		{Kind: reasoning.StepThink},
		{Kind: reasoning.StepTool, ToolName: "file_write", ToolArgs: mk("a.go")},
		{Kind: reasoning.StepTool, ToolName: "file_read", ToolArgs: mk("b.go")},
		{Kind: reasoning.StepTool, ToolName: "file_patch", ToolArgs: mk("c.go")},
		{Kind: reasoning.StepTool, ToolName: "file_write", ToolArgs: mk("a.go")},
	}

	paths := artifactPaths(history)
	if len(paths) != 2 || paths[0] != "a.go" || paths[1] != "c.go" {
		t.Fatalf("expected [a.go c.go] in first-write order, got %v", paths)
	}
}
