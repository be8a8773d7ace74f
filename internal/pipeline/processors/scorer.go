package processors

import (
	"context"
	"fmt"
	"strings"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/logger"
)

// Compliance verdicts.
const (
	VerdictPass   = "pass"
	VerdictReview = "review"
	VerdictReject = "reject"
)

// TagSuggestion is one AI-suggested tag with its confidence.
type TagSuggestion struct {
	Value      string
	Confidence float64
}

// Tagger is the optional AI tagging agent. It suggests descriptive tags and
// raises safety flags that feed into compliance scoring.
type Tagger interface {
	SuggestTags(ctx context.Context, asset repository.Asset, metadata map[string]interface{}) ([]TagSuggestion, []string, error)
}

// ScoreInput is everything Evaluate needs to score an asset. Kept as a plain
// struct so scoring stays a pure function.
type ScoreInput struct {
	Kind        string
	ContentType string
	SizeBytes   int64
	Metadata    map[string]interface{}
	SafetyFlags []string
}

// Evaluate scores an asset against the ruleset. Deterministic and free of
// side effects so the rules can be tested directly.
func Evaluate(ruleset Ruleset, input ScoreInput) (int, string, []string) {
	score := 100
	reasons := make([]string, 0)
	rejected := false

	normalizedType := strings.TrimSpace(strings.ToLower(strings.Split(input.ContentType, ";")[0]))
	for _, banned := range ruleset.BannedContentTypes {
		if normalizedType == strings.ToLower(banned) {
			score -= 100
			rejected = true
			reasons = append(reasons, fmt.Sprintf("content type %s is banned", normalizedType))
		}
	}

	if ruleset.MaxSizeBytes > 0 && input.SizeBytes > ruleset.MaxSizeBytes {
		score -= 30
		reasons = append(reasons, fmt.Sprintf("file size %d exceeds cap %d", input.SizeBytes, ruleset.MaxSizeBytes))
	}

	for _, key := range ruleset.RequiredMetadata[input.Kind] {
		if _, ok := input.Metadata[key]; !ok {
			score -= 15
			reasons = append(reasons, fmt.Sprintf("required metadata %q missing", key))
		}
	}

	for _, flag := range input.SafetyFlags {
		for _, banned := range ruleset.BannedTags {
			if strings.EqualFold(flag, banned) {
				score -= 100
				rejected = true
				reasons = append(reasons, fmt.Sprintf("safety flag %s raised", strings.ToLower(flag)))
			}
		}
	}

	if score < 0 {
		score = 0
	}

	verdict := VerdictPass
	switch {
	case rejected || score < ruleset.RejectBelow:
		verdict = VerdictReject
	case score < ruleset.PassThreshold:
		verdict = VerdictReview
	}

	return score, verdict, reasons
}

// Scorer runs compliance scoring: AI tagging (best effort) followed by rule
// evaluation and report storage.
type Scorer struct {
	repo    repository.Repository
	ruleset Ruleset
	tagger  Tagger
	log     *logger.Logger
}

// NewScorer creates the compliance scoring stage processor. A nil tagger
// disables AI tagging; rule evaluation still runs.
func NewScorer(repo repository.Repository, ruleset Ruleset, tagger Tagger, log *logger.Logger) *Scorer {
	return &Scorer{
		repo:    repo,
		ruleset: ruleset,
		tagger:  tagger,
		log:     log,
	}
}

// Process scores one asset and returns the verdict. The worker quarantines
// the asset when the verdict is reject.
func (s *Scorer) Process(ctx context.Context, asset repository.Asset) (string, error) {
	metadata, err := s.repo.GetMetadata(ctx, asset.ID)
	if err != nil {
		return "", err
	}

	safetyFlags := s.runTagger(ctx, asset, metadata)

	score, verdict, reasons := Evaluate(s.ruleset, ScoreInput{
		Kind:        asset.Kind,
		ContentType: asset.ContentType,
		SizeBytes:   asset.SizeBytes,
		Metadata:    metadata,
		SafetyFlags: safetyFlags,
	})

	if err := s.repo.UpsertComplianceReport(ctx, asset.ID, score, verdict, reasons); err != nil {
		return "", err
	}

	s.log.PipelineStage(asset.ID.String(), domain.StageScore, "verdict_"+verdict, 0)
	return verdict, nil
}

// runTagger asks the AI agent for tags and safety flags. Tagging is best
// effort: failures are logged and scoring proceeds without flags.
func (s *Scorer) runTagger(ctx context.Context, asset repository.Asset, metadata map[string]interface{}) []string {
	if s.tagger == nil {
		return nil
	}

	suggestions, safetyFlags, err := s.tagger.SuggestTags(ctx, asset, metadata)
	if err != nil {
		s.log.Warn("ai tagging failed", "assetId", asset.ID, "error", err)
		return nil
	}

	tags := make([]repository.TagParams, 0, len(suggestions))
	for _, suggestion := range suggestions {
		confidence := suggestion.Confidence
		tags = append(tags, repository.TagParams{
			Value:      strings.ToLower(strings.TrimSpace(suggestion.Value)),
			Source:     "ai",
			Confidence: &confidence,
		})
	}
	if err := s.repo.AddTags(ctx, asset.ID, tags); err != nil {
		s.log.Warn("storing ai tags failed", "assetId", asset.ID, "error", err)
	}

	return safetyFlags
}
