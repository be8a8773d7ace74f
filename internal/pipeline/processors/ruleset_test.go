package processors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesetEmptyPathReturnsDefaults(t *testing.T) {
	ruleset, err := LoadRuleset("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ruleset.PassThreshold != 70 || ruleset.RejectBelow != 40 {
		t.Fatalf("unexpected default thresholds: %d / %d", ruleset.PassThreshold, ruleset.RejectBelow)
	}
	if len(ruleset.BannedTags) == 0 {
		t.Fatalf("default ruleset must carry banned tags")
	}
}

func TestLoadRulesetFromYAML(t *testing.T) {
	content := `
max_size_bytes: 1048576
banned_content_types:
  - application/x-sh
required_metadata:
  image:
    - width
  pdf:
    - pageCount
banned_tags:
  - nsfw
pass_threshold: 80
reject_below: 30
`
	path := filepath.Join(t.TempDir(), "ruleset.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write ruleset: %v", err)
	}

	ruleset, err := LoadRuleset(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ruleset.MaxSizeBytes != 1048576 {
		t.Fatalf("max_size_bytes = %d, want 1048576", ruleset.MaxSizeBytes)
	}
	if ruleset.PassThreshold != 80 || ruleset.RejectBelow != 30 {
		t.Fatalf("thresholds = %d / %d, want 80 / 30", ruleset.PassThreshold, ruleset.RejectBelow)
	}
	if got := ruleset.RequiredMetadata["pdf"]; len(got) != 1 || got[0] != "pageCount" {
		t.Fatalf("required_metadata[pdf] = %v", got)
	}
}

func TestLoadRulesetMissingFile(t *testing.T) {
	if _, err := LoadRuleset(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing ruleset file")
	}
}

func TestLoadRulesetZeroThresholdsGetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleset.yaml")
	if err := os.WriteFile(path, []byte("banned_tags: [nsfw]\n"), 0o600); err != nil {
		t.Fatalf("write ruleset: %v", err)
	}

	ruleset, err := LoadRuleset(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ruleset.PassThreshold != 70 || ruleset.RejectBelow != 40 {
		t.Fatalf("zero thresholds must fall back to defaults, got %d / %d", ruleset.PassThreshold, ruleset.RejectBelow)
	}
}
