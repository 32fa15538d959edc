package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	skillsSubdir = "skills"
	skillYAML    = "skill.yaml"
	skillBody    = "body.md"
)

// ScanDir scans <workspaceDir>/skills/ and returns all valid Descriptors.
// Subdirectories without a skill.yaml are silently skipped. If the skills/
// directory does not exist, an empty slice is returned — not an error,
// since an empty skill registry is a valid, supported state (§4.4).
func ScanDir(workspaceDir string) ([]*Descriptor, []error) {
	skillsDir := filepath.Join(workspaceDir, skillsSubdir)

	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("skill: scan %q: %w", skillsDir, err)}
	}

	var descs []*Descriptor
	var errs []error

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(skillsDir, e.Name())
		yamlPath := filepath.Join(dir, skillYAML)

		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue // no skill.yaml → silently skip
			}
			errs = append(errs, fmt.Errorf("skill: read %q: %w", yamlPath, err))
			continue
		}

		var desc Descriptor
		if err := yaml.Unmarshal(data, &desc); err != nil {
			errs = append(errs, fmt.Errorf("skill: parse %q: %w", yamlPath, err))
			continue
		}
		if desc.Name == "" {
			desc.Name = e.Name()
		}
		if desc.Category == "" {
			desc.Category = inferCategory(desc.Name, desc.Keywords)
		}

		if body, err := os.ReadFile(filepath.Join(dir, skillBody)); err == nil {
			desc.Body = string(body)
		} else if !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("skill: read body for %q: %w", desc.Name, err))
		}
		// Body text also contributes to keyword extraction: body
		// words matching a category keyword widen the declared set.
		desc.Keywords = append(desc.Keywords, extractKeywordsFromBody(desc.Body)...)

		desc.Dir = dir
		descs = append(descs, &desc)
	}

	return descs, errs
}

// categoryKeywords is the fixed category-inference rubric used when a
// skill.yaml omits an explicit category header.
var categoryKeywords = map[string][]string{
	"feature":       {"feature", "build", "implement"},
	"debugging":     {"debug", "bug", "fix", "error"},
	"refactoring":   {"refactor", "cleanup", "restructure"},
	"performance":   {"performance", "optimize", "speed"},
	"analysis":      {"analyze", "scan", "explain"},
	"architecture":  {"architecture", "design", "plan"},
	"testing":       {"test", "coverage"},
	"quality":       {"review", "lint", "audit"},
	"documentation": {"document", "docs"},
	"deployment":    {"deploy", "release", "ship"},
	"setup":         {"install", "setup", "configure"},
}

func inferCategory(name string, keywords []string) string {
	lowerName := strings.ToLower(name)
	for cat, cues := range categoryKeywords {
		for _, cue := range cues {
			for _, kw := range keywords {
				if strings.ToLower(kw) == cue {
					return cat
				}
			}
			if strings.Contains(lowerName, cue) {
				return cat
			}
		}
	}
	return "general"
}

// extractKeywordsFromBody widens the declared keyword set with any
// category-rubric cue words that literally occur in the skill body, so a
// skill author need not duplicate every cue into the header.
func extractKeywordsFromBody(body string) []string {
	if body == "" {
		return nil
	}
	lower := strings.ToLower(body)
	var found []string
	seen := map[string]bool{}
	for _, cues := range categoryKeywords {
		for _, cue := range cues {
			if !seen[cue] && strings.Contains(lower, cue) {
				found = append(found, cue)
				seen[cue] = true
			}
		}
	}
	return found
}
