package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/autoforge/autoforge/internal/reasoning"
	"github.com/autoforge/autoforge/internal/state"
	"github.com/autoforge/autoforge/internal/tool"
)

// writeToolNames are the tool names whose successful calls count as an
// artifact write for the Artifact Registry (§4.7.4(d)): the spec speaks of
// "write_file observations" generically; this module's concrete write
// surface is file_write (full overwrite) and file_patch (localized edit).
var writeToolNames = map[string]bool{
	"file_write": true,
	"file_patch": true,
}

type pathArgs struct {
	Path string `json:"path"`
}

// trackingDispatcher wraps a reasoning.Dispatcher so that every successful
// call to a write-shaped tool is recorded in the Artifact Registry: the
// pre-call file content (if any) is captured as the rollback backup before
// the tool runs, and the post-call content is hashed and appended as a new
// Artifact Entry (§4.7.5). Reads and other tool categories pass through
// unmodified.
func trackingDispatcher(inner reasoning.Dispatcher, workspaceRoot string, store *state.Store, runID, agentID string) reasoning.Dispatcher {
	return func(ctx context.Context, name string, args json.RawMessage) tool.InvocationResult {
		if !writeToolNames[name] {
			return inner(ctx, name, args)
		}

		var pa pathArgs
		_ = json.Unmarshal(args, &pa)
		absPath := pa.Path
		if pa.Path != "" && !filepath.IsAbs(pa.Path) {
			absPath = filepath.Join(workspaceRoot, pa.Path)
		}

		var before []byte
		if data, err := os.ReadFile(absPath); err == nil {
			before = data
		}

		result := inner(ctx, name, args)
		if !result.OK || pa.Path == "" {
			return result
		}

		after, err := os.ReadFile(absPath)
		if err != nil {
			return result
		}

		relPath := pa.Path
		if rel, err := filepath.Rel(workspaceRoot, absPath); err == nil {
			relPath = rel
		}

		var supersedes string
		if entries, err := store.LoadManifest(runID); err == nil {
			for i := len(entries) - 1; i >= 0; i-- {
				if entries[i].Path == relPath && entries[i].SupersededBy == "" {
					supersedes = entries[i].SHA256
					break
				}
			}
		}

		_, _ = store.RecordWrite(runID, agentID, relPath, after, before, supersedes)
		return result
	}
}

// restorePath writes backup content back to workspaceRoot/relPath, or
// removes the file when remove is true (the path did not exist before the
// run that is being rolled back).
func restorePath(workspaceRoot, relPath string, backup []byte, remove bool) error {
	absPath := filepath.Join(workspaceRoot, relPath)
	if remove {
		err := os.Remove(absPath)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(absPath, backup, 0o644)
}

// artifactPaths extracts the distinct file paths a step's history wrote,
// in first-write order, for StepResult.ArtifactsProduced.
func artifactPaths(history []reasoning.Step) []string {
	seen := map[string]bool{}
	var out []string
	for _, h := range history {
		if h.Kind != reasoning.StepTool || !writeToolNames[h.ToolName] {
			continue
		}
		var pa pathArgs
		if err := json.Unmarshal([]byte(h.ToolArgs), &pa); err != nil || pa.Path == "" {
			continue
		}
		if !seen[pa.Path] {
			seen[pa.Path] = true
			out = append(out, pa.Path)
		}
	}
	return out
}
