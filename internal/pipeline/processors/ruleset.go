package processors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Ruleset holds the compliance rules the scorer evaluates. Loaded from YAML
// so governance teams can tune rules without a deploy.
type Ruleset struct {
	// MaxSizeBytes caps the original file size. 0 disables the cap.
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
	// BannedContentTypes reject the asset outright.
	BannedContentTypes []string `yaml:"banned_content_types"`
	// RequiredMetadata lists metadata keys that must be present per kind.
	RequiredMetadata map[string][]string `yaml:"required_metadata"`
	// BannedTags are AI safety flags that reject the asset.
	BannedTags []string `yaml:"banned_tags"`
	// PassThreshold is the minimum score for a pass verdict.
	PassThreshold int `yaml:"pass_threshold"`
	// RejectBelow rejects assets scoring under this value.
	RejectBelow int `yaml:"reject_below"`
}

// DefaultRuleset returns the rules used when no YAML file is configured.
func DefaultRuleset() Ruleset {
	return Ruleset{
		BannedContentTypes: []string{"application/x-msdownload", "application/x-sh"},
		RequiredMetadata: map[string][]string{
			"image": {"width", "height"},
		},
		BannedTags:    []string{"nsfw", "violence", "watermarked"},
		PassThreshold: 70,
		RejectBelow:   40,
	}
}

// LoadRuleset reads a YAML ruleset from disk. An empty path yields the
// default ruleset.
func LoadRuleset(path string) (Ruleset, error) {
	if path == "" {
		return DefaultRuleset(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("read ruleset %s: %w", path, err)
	}

	ruleset := DefaultRuleset()
	if err := yaml.Unmarshal(data, &ruleset); err != nil {
		return Ruleset{}, fmt.Errorf("parse ruleset %s: %w", path, err)
	}

	if ruleset.PassThreshold <= 0 {
		ruleset.PassThreshold = 70
	}
	if ruleset.RejectBelow <= 0 {
		ruleset.RejectBelow = 40
	}
	return ruleset, nil
}
