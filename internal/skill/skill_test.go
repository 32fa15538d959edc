package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/autoforge/autoforge/internal/intent"
)

func writeSkill(t *testing.T, root, name, yamlBody, body string) {
	t.Helper()
	dir := filepath.Join(root, "skills", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, skillYAML), []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	if body != "" {
		if err := os.WriteFile(filepath.Join(dir, skillBody), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanDir_MissingSkillsDirIsNotError(t *testing.T) {
	descs, errs := ScanDir(t.TempDir())
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if descs != nil {
		t.Fatalf("expected nil descriptors, got %v", descs)
	}
}

func TestScanDir_LoadsDescriptorAndBody(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "auth", `
name: auth
category: feature
keywords: [auth, login, session]
agent_affinity:
  builder: 0.9
  reviewer: 0.3
`, "Authentication knowledge pack.")

	descs, errs := ScanDir(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(descs) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descs))
	}
	d := descs[0]
	if d.Name != "auth" || d.Category != "feature" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.Body != "Authentication knowledge pack." {
		t.Fatalf("unexpected body: %q", d.Body)
	}
	if d.AgentAffinity["builder"] != 0.9 {
		t.Fatalf("unexpected affinity: %v", d.AgentAffinity)
	}
}

func TestScanDir_InfersCategoryWhenAbsent(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "fixer", `
name: fixer
keywords: [bug, crash]
`, "")

	descs, _ := ScanDir(root)
	if len(descs) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descs))
	}
	if descs[0].Category != "debugging" {
		t.Fatalf("expected inferred category debugging, got %q", descs[0].Category)
	}
}

func TestRegistry_LoadAndAll(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "auth", "name: auth\ncategory: feature\nkeywords: [auth]\n", "")
	writeSkill(t, root, "perf", "name: perf\ncategory: performance\nkeywords: [optimize]\n", "")

	reg := NewRegistry(root)
	n, errs := reg.Load()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if n != 2 || reg.Len() != 2 {
		t.Fatalf("expected 2 skills loaded, got %d", n)
	}
}

func TestScore_KeywordOverlapAndCategoryAndName(t *testing.T) {
	d := &Descriptor{Name: "auth", Category: "feature", Keywords: []string{"auth", "login"}}
	score := Score(d, "build auth login flow", intent.TaskBuildFeature, "builder")

	// keyword_overlap = 2/2 = 1 (0.40) + category_match = 1 (0.25)
	// + agent_affinity = 0 (no table) + name_token_match = 1 (0.15)
	want := 0.40 + 0.25 + 0.15
	if score < want-0.001 || score > want+0.001 {
		t.Fatalf("expected score ~%.2f, got %.4f", want, score)
	}
}

func TestSelectTop_EmptyRegistryYieldsEmptySelection(t *testing.T) {
	ranked := SelectTop(nil, "build auth", intent.TaskBuildFeature, "builder", 3)
	if len(ranked) != 0 {
		t.Fatalf("expected empty selection, got %v", ranked)
	}
}

func TestSelectTop_OrdersByScoreThenName(t *testing.T) {
	descs := []*Descriptor{
		{Name: "zzz-auth", Category: "feature", Keywords: []string{"auth"}},
		{Name: "aaa-auth", Category: "feature", Keywords: []string{"auth"}},
		{Name: "unrelated", Category: "setup", Keywords: []string{"install"}},
	}
	ranked := SelectTop(descs, "build auth flow", intent.TaskBuildFeature, "builder", 3)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 non-zero scores, got %d", len(ranked))
	}
	if ranked[0].Descriptor.Name != "aaa-auth" {
		t.Fatalf("expected tie broken by name ASC, got %q first", ranked[0].Descriptor.Name)
	}
}
