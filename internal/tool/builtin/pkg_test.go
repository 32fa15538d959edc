package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestPkgInstall_UnknownManagerRejected(t *testing.T) {
	pt := NewPkgInstallTool("")
	args, _ := json.Marshal(pkgInstallArgs{Manager: "gem", Package: "rails"})
	result, err := pt.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" || !strings.Contains(result.Error, "未知的包管理器") {
		t.Fatalf("expected an unknown-manager error, got: %+v", result)
	}
}

func TestPkgInstall_EmptyPackageRejected(t *testing.T) {
	pt := NewPkgInstallTool("")
	args, _ := json.Marshal(pkgInstallArgs{Manager: "npm", Package: "   "})
	result, err := pt.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Fatalf("expected an empty-package error, got: %+v", result)
	}
}

func TestPkgInstall_InjectionCharactersRejected(t *testing.T) {
	pt := NewPkgInstallTool("")
	for _, pkg := range []string{"foo;rm -rf /", "foo && echo pwned", "foo`whoami`", "foo$(id)"} {
		args, _ := json.Marshal(pkgInstallArgs{Manager: "pip", Package: pkg})
		result, err := pt.Execute(context.Background(), args)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", pkg, err)
		}
		if result.Error == "" {
			t.Fatalf("expected package %q to be rejected as unsafe, got: %+v", pkg, result)
		}
	}
}

func TestPkgInstall_BadJSON(t *testing.T) {
	pt := NewPkgInstallTool("")
	result, err := pt.Execute(context.Background(), []byte(`not json`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Fatalf("expected a parse error, got: %+v", result)
	}
}

func TestPkgInstall_Name(t *testing.T) {
	if (&PkgInstallTool{}).Name() != "pkg_install" {
		t.Fatal("tool name mismatch")
	}
}
