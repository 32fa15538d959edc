package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/autoforge/autoforge/internal/tool"
)

const runTestsTimeout = 120 * time.Second

// testCommandsBySignature detects the project's test command from a
// well-known signature file present at the workspace root, in priority
// order. Falls back to "go test ./..." when nothing matches; on a non-Go
// tree that command fails with a clear stderr rather than silently
// skipping.
var testCommandsBySignature = []struct {
	signature string
	argv      []string
}{
	{"go.mod", []string{"go", "test", "./..."}},
	{"package.json", []string{"npm", "test"}},
	{"pytest.ini", []string{"pytest"}},
	{"pyproject.toml", []string{"pytest"}},
	{"Cargo.toml", []string{"cargo", "test"}},
}

// RunTestsTool runs the project's test command (category test, §4.5),
// used by the test-writer agent step. The Self-Healing Runner (C8) path
// does not call this tool; it runs the same detected command through
// DetectTestCommand.
type RunTestsTool struct {
	workspaceDir string
}

func NewRunTestsTool(workspaceDir string) *RunTestsTool {
	return &RunTestsTool{workspaceDir: workspaceDir}
}

func (t *RunTestsTool) Name() string        { return "run_tests" }
func (t *RunTestsTool) Description() string { return "运行项目的测试命令并返回输出" }

func (t *RunTestsTool) InputSchema() json.RawMessage {
	return tool.BuildSchema()
}

func (t *RunTestsTool) Init(_ context.Context) error { return nil }
func (t *RunTestsTool) Close() error                 { return nil }

func (t *RunTestsTool) Execute(ctx context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	argv := detectTestCommand(t.workspaceDir)

	runCtx, cancel := context.WithTimeout(ctx, runTestsTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(runCtx, "cmd", "/c", strings.Join(argv, " "))
	} else {
		cmd = exec.CommandContext(runCtx, argv[0], argv[1:]...)
	}
	if t.workspaceDir != "" {
		cmd.Dir = t.workspaceDir
	}
	cmd.Env = filterEnv(os.Environ())

	output, err := cmd.CombinedOutput()
	outStr := safeRuneTruncate(strings.TrimSpace(string(output)), maxOutputChars)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return tool.ToolResult{Error: fmt.Sprintf("测试超时 (%v): %s", runTestsTimeout, outStr)}, nil
		}
		return tool.ToolResult{Output: outStr, Error: fmt.Sprintf("测试失败: %v", err)}, nil
	}
	return tool.ToolResult{Output: outStr}, nil
}

// DetectTestCommand exposes the same signature-based command detection
// run_tests uses, for callers outside this package that need to launch the
// project's test command themselves (the Self-Healing Runner, C8).
func DetectTestCommand(workspaceDir string) []string {
	return detectTestCommand(workspaceDir)
}

func detectTestCommand(workspaceDir string) []string {
	for _, c := range testCommandsBySignature {
		if _, err := os.Stat(filepath.Join(workspaceDir, c.signature)); err == nil {
			return c.argv
		}
	}
	return []string{"go", "test", "./..."}
}
