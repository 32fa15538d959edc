package orchestrator

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autoforge/autoforge/internal/tool"
)

// defaultAgents embeds the stock agent documents shipped with the binary,
// read when the workspace has no agents/ override directory of its own.
// Adapted from the teacher's prompt loader's disk-overrides-embed
// priority chain, simplified to one layer since agent bodies have no L3
// user-rules analogue.
//
//go:embed agents/*.md
var defaultAgents embed.FS

// AgentDescriptor is the orchestrator's view of one pipeline agent (§3,
// §6): an id, an opaque body the core never parses beyond its header, and
// the tool/skill affinities declared in that header.
type AgentDescriptor struct {
	ID              string
	Role            string
	Body            string
	ToolCategories  []string
	SkillAffinity   map[string]float64
}

type agentHeader struct {
	Role           string             `yaml:"role"`
	ToolCategories []string           `yaml:"tool_categories"`
	SkillAffinity  map[string]float64 `yaml:"skill_affinity"`
}

// defaultAllowlistCategories is the conservative allowlist used when an
// agent document has no header at all (§6).
var defaultAllowlistCategories = []string{"core", "utility"}

// LoadAgents reads every agent document for the known pipeline ids,
// preferring workspaceDir/agents/<id>-*.md over the embedded default.
func LoadAgents(workspaceDir string) map[string]AgentDescriptor {
	out := map[string]AgentDescriptor{}
	for _, id := range []string{"00", "01", "02", "03", "04", "05", "09"} {
		out[id] = loadAgent(workspaceDir, id)
	}
	return out
}

func loadAgent(workspaceDir, id string) AgentDescriptor {
	name := id + ".md"
	if workspaceDir != "" {
		if entries, err := os.ReadDir(filepath.Join(workspaceDir, "agents")); err == nil {
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), id) {
					if data, err := os.ReadFile(filepath.Join(workspaceDir, "agents", e.Name())); err == nil {
						return parseAgentDoc(id, string(data))
					}
				}
			}
		}
	}
	data, err := defaultAgents.ReadFile("agents/" + name)
	if err != nil {
		return AgentDescriptor{ID: id, ToolCategories: defaultAllowlistCategories}
	}
	return parseAgentDoc(id, string(data))
}

// parseAgentDoc splits an agent document into its optional YAML header
// (delimited by --- lines, mirroring front matter) and body. The core
// never interprets the body beyond storing it.
func parseAgentDoc(id, doc string) AgentDescriptor {
	d := AgentDescriptor{ID: id, ToolCategories: defaultAllowlistCategories}

	const delim = "---"
	trimmed := strings.TrimLeft(doc, "\n")
	if !strings.HasPrefix(trimmed, delim) {
		d.Body = doc
		return d
	}

	rest := strings.TrimPrefix(trimmed, delim)
	end := strings.Index(rest, delim)
	if end < 0 {
		d.Body = doc
		return d
	}

	headerText, body := rest[:end], strings.TrimLeft(rest[end+len(delim):], "\n")
	var h agentHeader
	if err := yaml.Unmarshal([]byte(headerText), &h); err != nil {
		d.Body = doc
		return d
	}

	d.Role = h.Role
	d.Body = body
	if len(h.ToolCategories) > 0 {
		d.ToolCategories = h.ToolCategories
	}
	d.SkillAffinity = h.SkillAffinity
	return d
}

// Allowlist resolves this agent's declared tool categories into a
// tool.Allowlist.
func (d AgentDescriptor) Allowlist() tool.Allowlist {
	cats := make([]tool.Category, 0, len(d.ToolCategories))
	for _, c := range d.ToolCategories {
		cats = append(cats, tool.Category(c))
	}
	return tool.NewAllowlist(cats...)
}
