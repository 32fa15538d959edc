package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/autoforge/autoforge/internal/tool"
)

const pkgInstallTimeout = 120 * time.Second

// pkgInstallManagers is the closed set of package managers the tool will
// shell out to, mirroring scanner.PackageManager's npm/pnpm/yarn/pip/
// poetry/cargo/go taxonomy (§3 Project Fingerprint). Each entry is the
// argv prefix prepended to the package name the caller supplies.
var pkgInstallManagers = map[string][]string{
	"npm":    {"npm", "install"},
	"pnpm":   {"pnpm", "add"},
	"yarn":   {"yarn", "add"},
	"pip":    {"pip", "install"},
	"poetry": {"poetry", "add"},
	"cargo":  {"cargo", "add"},
	"go":     {"go", "get"},
}

// PkgInstallTool installs one dependency through a named package
// manager (category pkg, §4.5). It is the concrete remedy surface the
// Self-Healing Runner (C8) drives for "ModuleNotFoundError" / "Cannot find
// module" classifications (§4.8).
type PkgInstallTool struct {
	workspaceDir string
}

func NewPkgInstallTool(workspaceDir string) *PkgInstallTool {
	return &PkgInstallTool{workspaceDir: workspaceDir}
}

func (t *PkgInstallTool) Name() string { return "pkg_install" }
func (t *PkgInstallTool) Description() string {
	return "通过指定的包管理器安装依赖 (npm/pnpm/yarn/pip/poetry/cargo/go)"
}

func (t *PkgInstallTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "manager", Type: "string", Description: "包管理器", Required: true,
			Enum: []string{"npm", "pnpm", "yarn", "pip", "poetry", "cargo", "go"}},
		tool.SchemaParam{Name: "package", Type: "string", Description: "要安装的包名", Required: true},
	)
}

func (t *PkgInstallTool) Init(_ context.Context) error { return nil }
func (t *PkgInstallTool) Close() error                 { return nil }

type pkgInstallArgs struct {
	Manager string `json:"manager"`
	Package string `json:"package"`
}

func (t *PkgInstallTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a pkgInstallArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("参数解析失败: %v", err)}, nil
	}

	prefix, ok := pkgInstallManagers[strings.ToLower(a.Manager)]
	if !ok {
		return tool.ToolResult{Error: fmt.Sprintf("未知的包管理器: %s", a.Manager)}, nil
	}
	if strings.TrimSpace(a.Package) == "" {
		return tool.ToolResult{Error: "package 不能为空"}, nil
	}
	if strings.ContainsAny(a.Package, ";|&$`<>\n") {
		return tool.ToolResult{Error: "package 参数包含非法字符"}, nil
	}

	argv := append(append([]string{}, prefix...), a.Package)

	runCtx, cancel := context.WithTimeout(ctx, pkgInstallTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if t.workspaceDir != "" {
		cmd.Dir = t.workspaceDir
	}
	cmd.Env = filterEnv(os.Environ())

	output, err := cmd.CombinedOutput()
	outStr := safeRuneTruncate(strings.TrimSpace(string(output)), maxOutputChars)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return tool.ToolResult{Error: fmt.Sprintf("安装超时 (%v): %s", pkgInstallTimeout, outStr)}, nil
		}
		return tool.ToolResult{Output: outStr, Error: fmt.Sprintf("安装失败: %v", err)}, nil
	}
	return tool.ToolResult{Output: outStr}, nil
}
