package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/autoforge/autoforge/internal/errs"
)

// ignoreDirs are skipped during the walk, mirroring the teacher's
// skipDirs convention in the file_find builtin tool.
var ignoreDirs = map[string]bool{
	".git": true, "node_modules": true, ".idea": true, ".vscode": true,
	"vendor": true, "__pycache__": true, ".cache": true,
	"dist": true, "build": true, "target": true, ".state": true,
}

// signatureFiles name the language of the workspace root when one of them
// is present there; that language is given only to files with no
// extension, and the extension mapping wins for all others.
var signatureFiles = map[string]string{
	"package.json":     "typescript",
	"go.mod":           "go",
	"requirements.txt": "python",
	"pyproject.toml":   "python",
	"Cargo.toml":       "rust",
}

var extLanguage = map[string]string{
	".go": "go", ".py": "python", ".rs": "rust",
	".js": "javascript", ".jsx": "javascript", ".mjs": "javascript",
	".ts": "typescript", ".tsx": "typescript",
	".java": "java", ".rb": "ruby", ".c": "c", ".cpp": "cpp", ".h": "c",
	".md": "markdown", ".json": "json", ".yaml": "yaml", ".yml": "yaml",
}

// entrypointPatterns are well-known filenames that mark an entry point,
// independent of directory-level signature overrides.
var entrypointPatterns = []string{"main.go", "main.py", "index.js", "index.ts", "app.py", "app.js"}

// Scan walks root and produces a Fingerprint plus the classified File
// Records. A missing root fails with errs.KindScanMissingRoot; all other
// I/O errors on individual files are recorded as warnings (RiskFlags), not
// fatal, matching §4.1's failure semantics.
func Scan(root string, depth Depth) (Fingerprint, []FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Fingerprint{}, nil, errs.New(errs.KindScanMissingRoot, "scanner.Scan", fmt.Sprintf("workspace root %q does not exist", root))
	}

	dirLang := detectDirectorySignatures(root)

	var files []FileRecord
	var riskFlags []RiskFlag
	languages := map[string]bool{}
	capReached := false

	walkErr := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			riskFlags = append(riskFlags, RiskFlag{
				Severity: SeverityWarning, File: relPath(root, path),
				Issue: "io-error-during-scan", Recommendation: err.Error(),
			})
			return nil
		}
		if fi.IsDir() {
			if ignoreDirs[fi.Name()] {
				return filepath.SkipDir
			}
			if depth == Shallow && path != root && filepath.Dir(path) != root {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= MaxFiles {
			capReached = true
			return nil
		}

		lang := classifyFile(path, dirLang)
		if lang == "" {
			return nil
		}
		languages[lang] = true

		rel := relPath(root, path)
		rec := FileRecord{
			Path:      rel,
			Language:  lang,
			SizeLines: countLines(path),
			Role:      classifyRole(rel, fi.Name()),
			Imports:   extractImports(path, lang),
		}
		files = append(files, rec)
		return nil
	})
	if walkErr != nil {
		riskFlags = append(riskFlags, RiskFlag{Severity: SeverityWarning, File: root, Issue: "walk-error", Recommendation: walkErr.Error()})
	}

	if capReached {
		riskFlags = append(riskFlags, RiskFlag{Severity: SeverityInfo, File: root, Issue: "file-cap-reached", Recommendation: fmt.Sprintf("scan truncated at %d files", MaxFiles)})
	}

	fp := Fingerprint{
		Languages:      sortedKeys(languages),
		Frameworks:     detectFrameworks(root, languages),
		PackageManager: detectPackageManager(root),
		Entrypoints:    rankEntrypoints(root, files),
		RiskFlags:      riskFlags,
	}
	return fp, files, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// detectDirectorySignatures returns the language signature files force for
// the top-level directory (e.g. package.json forces JS/TS classification).
func detectDirectorySignatures(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if lang, ok := signatureFiles[e.Name()]; ok {
			return lang
		}
	}
	return ""
}

func classifyFile(path string, dirLang string) string {
	ext := filepath.Ext(path)
	if lang, ok := extLanguage[ext]; ok {
		return lang
	}
	if ext == "" && dirLang != "" {
		// Extensionless scripts (e.g. a shebang-only build script) inherit
		// the directory's signature-file language rather than being dropped.
		return dirLang
	}
	return ""
}

func classifyRole(relPath, base string) Role {
	lower := strings.ToLower(base)
	switch {
	case strings.Contains(lower, "_test.") || strings.Contains(lower, ".test.") || strings.Contains(lower, "test_"):
		return RoleTest
	case strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".toml"):
		return RoleConfig
	case isEntrypointName(relPath, base):
		return RoleEntrypoint
	default:
		return RoleModule
	}
}

func isEntrypointName(relPath, base string) bool {
	for _, p := range entrypointPatterns {
		if base == p {
			return true
		}
	}
	// cmd/*/main.go
	if base == "main.go" && strings.HasPrefix(filepath.ToSlash(relPath), "cmd/") {
		return true
	}
	return false
}

// rankEntrypoints collects entrypoint-role files and ranks them by depth
// (shallower wins), tie-broken lexicographically per §4.2.2's determinism
// rule, applied system-wide.
func rankEntrypoints(root string, files []FileRecord) []string {
	var eps []string
	for _, f := range files {
		if f.Role == RoleEntrypoint {
			eps = append(eps, f.Path)
		}
	}
	sort.Slice(eps, func(i, j int) bool {
		di, dj := strings.Count(eps[i], "/"), strings.Count(eps[j], "/")
		if di != dj {
			return di < dj
		}
		return eps[i] < eps[j]
	})
	return eps
}

func detectPackageManager(root string) PackageManager {
	check := func(name string) bool {
		_, err := os.Stat(filepath.Join(root, name))
		return err == nil
	}
	switch {
	case check("pnpm-lock.yaml"):
		return PMPnpm
	case check("yarn.lock"):
		return PMYarn
	case check("package.json"):
		return PMNpm
	case check("pyproject.toml") && check("poetry.lock"):
		return PMPoetry
	case check("requirements.txt"):
		return PMPip
	case check("Cargo.toml"):
		return PMCargo
	case check("go.mod"):
		return PMGo
	default:
		return PMNone
	}
}

// frameworkMarkers maps a marker filename to the framework it implies.
var frameworkMarkers = map[string]string{
	"next.config.js": "next", "angular.json": "angular", "nuxt.config.js": "nuxt",
}

func detectFrameworks(root string, languages map[string]bool) []string {
	found := map[string]bool{}
	for marker, fw := range frameworkMarkers {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			found[fw] = true
		}
	}
	return sortedKeys(found)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n
}

// extractImports is a line-oriented, stack-specific extractor. Unresolved
// imports are returned as-is (dangling edges); the scan never fails on
// them.
func extractImports(path, lang string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var imports []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch lang {
		case "go":
			if strings.HasPrefix(line, "\"") && strings.HasSuffix(line, "\"") {
				imports = append(imports, strings.Trim(line, "\""))
			}
		case "python":
			if strings.HasPrefix(line, "import ") {
				imports = append(imports, strings.TrimSpace(strings.TrimPrefix(line, "import ")))
			} else if strings.HasPrefix(line, "from ") && strings.Contains(line, " import ") {
				imports = append(imports, strings.Fields(line)[1])
			}
		case "javascript", "typescript":
			if strings.Contains(line, "require(") || strings.HasPrefix(line, "import ") {
				if i := strings.Index(line, "from "); i >= 0 {
					rest := strings.TrimSpace(line[i+5:])
					imports = append(imports, strings.Trim(rest, "\"';"))
				}
			}
		}
	}
	return imports
}
