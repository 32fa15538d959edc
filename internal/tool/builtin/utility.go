package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/autoforge/autoforge/internal/tool"
)

// secretNamePatterns is the refusal list for env_read (§4.5): variable
// names containing any of these substrings (case-insensitive) are never
// disclosed, regardless of allowlist.
var secretNamePatterns = []string{"SECRET", "TOKEN", "KEY", "PASSWORD", "CREDENTIAL"}

func looksSecret(name string) bool {
	upper := strings.ToUpper(name)
	for _, p := range secretNamePatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}

// ── env_read ──

type EnvReadTool struct{}

func NewEnvReadTool() *EnvReadTool { return &EnvReadTool{} }

func (t *EnvReadTool) Name() string        { return "env_read" }
func (t *EnvReadTool) Description() string { return "读取环境变量（拒绝包含 SECRET/TOKEN/KEY/PASSWORD/CREDENTIAL 的变量名）" }

func (t *EnvReadTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "name", Type: "string", Description: "环境变量名", Required: true},
	)
}

func (t *EnvReadTool) Init(_ context.Context) error { return nil }
func (t *EnvReadTool) Close() error                 { return nil }

type envReadArgs struct {
	Name string `json:"name"`
}

func (t *EnvReadTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a envReadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("参数解析失败: %v", err)}, nil
	}
	if a.Name == "" {
		return tool.ToolResult{Error: "name 不能为空"}, nil
	}
	if looksSecret(a.Name) {
		return tool.ToolResult{Error: fmt.Sprintf("拒绝读取疑似敏感变量: %s", a.Name)}, nil
	}
	return tool.ToolResult{Output: os.Getenv(a.Name)}, nil
}

// ── mkdir ──

type MkdirTool struct {
	workspaceDir string
}

func NewMkdirTool(workspaceDir string) *MkdirTool {
	return &MkdirTool{workspaceDir: workspaceDir}
}

func (t *MkdirTool) Name() string        { return "mkdir" }
func (t *MkdirTool) Description() string { return "在工作区内递归创建目录" }

func (t *MkdirTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "path", Type: "string", Description: "目录路径", Required: true},
	)
}

func (t *MkdirTool) Init(_ context.Context) error { return nil }
func (t *MkdirTool) Close() error                 { return nil }

func (t *MkdirTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a filePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("参数解析失败: %v", err)}, nil
	}

	path, err := safeResolvePath(a.Path, t.workspaceDir)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("创建目录失败: %v", err)}, nil
	}
	return tool.ToolResult{Output: "created " + a.Path}, nil
}
