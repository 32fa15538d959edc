package builtin

import "github.com/autoforge/autoforge/internal/tool"

// init declares the closed-taxonomy category (§4.5) each built-in tool
// belongs to. Kept in one place so the mapping is auditable at a glance
// rather than scattered across each tool's file.
func init() {
	tool.RegisterCategory("file_read", tool.CategoryCore)
	tool.RegisterCategory("file_write", tool.CategoryCore)
	tool.RegisterCategory("file_list", tool.CategoryCore)
	tool.RegisterCategory("shell_exec", tool.CategoryCore)

	tool.RegisterCategory("file_move", tool.CategoryCore)
	tool.RegisterCategory("file_delete", tool.CategoryCore)
	tool.RegisterCategory("file_patch", tool.CategoryCore)

	tool.RegisterCategory("git_info", tool.CategoryGit)

	tool.RegisterCategory("pkg_install", tool.CategoryPkg)
	tool.RegisterCategory("run_tests", tool.CategoryTest)

	tool.RegisterCategory("find", tool.CategoryUtility)
	tool.RegisterCategory("file_grep", tool.CategoryUtility)
	tool.RegisterCategory("file_open", tool.CategoryUtility)
	tool.RegisterCategory("get_time", tool.CategoryUtility)
	tool.RegisterCategory("http_request", tool.CategoryUtility)
	tool.RegisterCategory("env_read", tool.CategoryUtility)
	tool.RegisterCategory("mkdir", tool.CategoryUtility)
}
