package processors

import (
	"strings"
	"testing"
)

func TestEvaluateCleanImagePasses(t *testing.T) {
	score, verdict, reasons := Evaluate(DefaultRuleset(), ScoreInput{
		Kind:        "image",
		ContentType: "image/jpeg",
		SizeBytes:   2 << 20,
		Metadata:    map[string]interface{}{"width": 1920, "height": 1080},
	})

	if verdict != VerdictPass {
		t.Fatalf("expected pass, got %s (reasons: %v)", verdict, reasons)
	}
	if score != 100 {
		t.Fatalf("expected score 100, got %d", score)
	}
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
}

func TestEvaluateBannedContentTypeRejects(t *testing.T) {
	score, verdict, reasons := Evaluate(DefaultRuleset(), ScoreInput{
		Kind:        "other",
		ContentType: "application/x-msdownload",
		SizeBytes:   1024,
	})

	if verdict != VerdictReject {
		t.Fatalf("expected reject, got %s", verdict)
	}
	if score != 0 {
		t.Fatalf("expected score 0, got %d", score)
	}
	if len(reasons) == 0 || !strings.Contains(reasons[0], "banned") {
		t.Fatalf("expected a banned content type reason, got %v", reasons)
	}
}

func TestEvaluateContentTypeParametersIgnored(t *testing.T) {
	_, verdict, _ := Evaluate(DefaultRuleset(), ScoreInput{
		Kind:        "other",
		ContentType: "application/x-sh; charset=utf-8",
		SizeBytes:   1024,
	})
	if verdict != VerdictReject {
		t.Fatalf("content type parameters must not defeat the ban, got %s", verdict)
	}
}

func TestEvaluateSafetyFlagRejects(t *testing.T) {
	_, verdict, reasons := Evaluate(DefaultRuleset(), ScoreInput{
		Kind:        "image",
		ContentType: "image/png",
		SizeBytes:   1024,
		Metadata:    map[string]interface{}{"width": 10, "height": 10},
		SafetyFlags: []string{"NSFW"},
	})

	if verdict != VerdictReject {
		t.Fatalf("expected reject on safety flag, got %s", verdict)
	}
	if len(reasons) == 0 {
		t.Fatalf("expected a safety flag reason")
	}
}

func TestEvaluateMissingMetadataDowngradesToReview(t *testing.T) {
	// Two missing keys at -15 each lands at 70... the threshold is strict
	// less-than, so force a review with the size cap on top.
	ruleset := DefaultRuleset()
	ruleset.MaxSizeBytes = 100

	score, verdict, reasons := Evaluate(ruleset, ScoreInput{
		Kind:        "image",
		ContentType: "image/jpeg",
		SizeBytes:   200,
		Metadata:    map[string]interface{}{},
	})

	if verdict != VerdictReview {
		t.Fatalf("expected review, got %s (score %d, reasons %v)", verdict, score, reasons)
	}
	if score != 40 {
		t.Fatalf("expected score 40 (100 - 30 - 15 - 15), got %d", score)
	}
	if len(reasons) != 3 {
		t.Fatalf("expected 3 reasons, got %v", reasons)
	}
}

func TestEvaluateScoreBelowRejectThreshold(t *testing.T) {
	ruleset := DefaultRuleset()
	ruleset.RequiredMetadata = map[string][]string{
		"image": {"a", "b", "c", "d", "e"},
	}

	score, verdict, _ := Evaluate(ruleset, ScoreInput{
		Kind:        "image",
		ContentType: "image/jpeg",
		SizeBytes:   1024,
		Metadata:    map[string]interface{}{},
	})

	if score != 25 {
		t.Fatalf("expected score 25, got %d", score)
	}
	if verdict != VerdictReject {
		t.Fatalf("score under reject_below must reject, got %s", verdict)
	}
}

func TestEvaluateExactThresholdPasses(t *testing.T) {
	ruleset := DefaultRuleset()
	ruleset.RequiredMetadata = map[string][]string{
		"image": {"a", "b"},
	}

	score, verdict, _ := Evaluate(ruleset, ScoreInput{
		Kind:        "image",
		ContentType: "image/jpeg",
		SizeBytes:   1024,
		Metadata:    map[string]interface{}{},
	})

	if score != 70 {
		t.Fatalf("expected score 70, got %d", score)
	}
	if verdict != VerdictPass {
		t.Fatalf("a score equal to pass_threshold must pass, got %s", verdict)
	}
}

func TestEvaluateSizeCapDisabledByDefault(t *testing.T) {
	_, verdict, reasons := Evaluate(DefaultRuleset(), ScoreInput{
		Kind:        "video",
		ContentType: "video/mp4",
		SizeBytes:   50 << 30,
	})

	if verdict != VerdictPass {
		t.Fatalf("default ruleset has no size cap, got %s (reasons %v)", verdict, reasons)
	}
}
