package tool

import "testing"

func TestAllowlist_UnknownToolNeverVisible(t *testing.T) {
	allow := NewAllowlist(CategoryCore, CategoryGit)
	if allow.Allows("definitely-not-a-tool") {
		t.Fatal("unregistered tool must never be visible")
	}
}

func TestAllowlist_AllowsOnlyDeclaredCategories(t *testing.T) {
	RegisterCategory("test-only-tool", CategoryTest)
	defer delete(categoryByName, "test-only-tool")

	allow := NewAllowlist(CategoryCore)
	if allow.Allows("test-only-tool") {
		t.Fatal("CategoryTest tool should not be visible under a core-only allowlist")
	}

	allow2 := NewAllowlist(CategoryTest)
	if !allow2.Allows("test-only-tool") {
		t.Fatal("CategoryTest tool should be visible under a test allowlist")
	}
}
