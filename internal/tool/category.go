package tool

// Category is one of the tool registry's closed categories (§4.5). Every
// registered tool belongs to exactly one.
type Category string

const (
	CategoryCore    Category = "core"
	CategoryGit     Category = "git"
	CategoryPkg     Category = "pkg"
	CategoryTest    Category = "test"
	CategoryUtility Category = "utility"
)

// AllCategories lists the closed taxonomy in declaration order.
func AllCategories() []Category {
	return []Category{CategoryCore, CategoryGit, CategoryPkg, CategoryTest, CategoryUtility}
}

// categoryByName is the static tool_name → Category map. Built-in tools
// register their category here at init time via RegisterCategory, so the
// mapping lives next to each tool's own package rather than in one giant
// switch statement.
var categoryByName = map[string]Category{}

// RegisterCategory declares the category a built-in tool belongs to. Called
// from each builtin tool's package init().
func RegisterCategory(toolName string, category Category) {
	categoryByName[toolName] = category
}

// CategoryOf returns the declared category for a tool name.
func CategoryOf(name string) (Category, bool) {
	c, ok := categoryByName[name]
	return c, ok
}

// Allowlist is a set of categories visible to a given agent invocation.
type Allowlist map[Category]bool

// NewAllowlist builds an Allowlist from a list of categories.
func NewAllowlist(categories ...Category) Allowlist {
	a := make(Allowlist, len(categories))
	for _, c := range categories {
		a[c] = true
	}
	return a
}

// Allows reports whether a tool name is visible under this allowlist. A
// tool with no declared category is never visible — the allowlist is a
// closed list, not a default-allow one.
func (a Allowlist) Allows(toolName string) bool {
	cat, ok := CategoryOf(toolName)
	if !ok {
		return false
	}
	return a[cat]
}

// Filter returns only the tools from a list that pass this allowlist,
// preserving the list's given order.
func (a Allowlist) Filter(tools []Tool) []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if a.Allows(t.Name()) {
			out = append(out, t)
		}
	}
	return out
}
