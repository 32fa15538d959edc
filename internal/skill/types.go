// Package skill implements the Skill Registry & Relevance Scorer (C4): it
// loads domain knowledge packs (descriptor + body) from a directory scan
// and ranks them for an agent step by a deterministic, bounded relevance
// formula (§4.4). No skill ever executes; skill content is an external
// collaborator the orchestrator reads, never runs.
package skill

// Descriptor is the parsed header of a skill.yaml plus its body text. One
// Descriptor corresponds to one skill directory under <workspaceDir>/skills/.
type Descriptor struct {
	Name          string             `yaml:"name"`
	Category      string             `yaml:"category"`
	Keywords      []string           `yaml:"keywords"`
	AgentAffinity map[string]float64 `yaml:"agent_affinity"`

	// Body is the skill's knowledge-pack text, read from body.md alongside
	// skill.yaml. Not part of the YAML header.
	Body string `yaml:"-"`

	// Dir is the absolute path of the skill directory, set by the loader.
	Dir string `yaml:"-"`
}

// keywordSet returns the descriptor's keywords as a lookup set.
func (d *Descriptor) keywordSet() map[string]bool {
	set := make(map[string]bool, len(d.Keywords))
	for _, kw := range d.Keywords {
		set[kw] = true
	}
	return set
}
