package selfheal

import (
	"testing"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
)

func TestDeriveRejectVerdictQuarantines(t *testing.T) {
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusFinalizing}
	facts := repository.AssetFacts{
		RenditionCount:    3,
		HasMetadata:       true,
		HasEmbedding:      true,
		ComplianceVerdict: "reject",
	}

	desired, reason := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", desired)
	}
	if reason == "" {
		t.Fatalf("expected a reason for the correction")
	}
}

func TestDeriveQuarantinedStaysQuarantined(t *testing.T) {
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusQuarantined}
	facts := repository.AssetFacts{ComplianceVerdict: "reject"}

	// Quarantined is never scanned, but the derivation must still not try
	// to move it.
	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusQuarantined && desired != domain.StatusUnchanged {
		t.Fatalf("quarantined asset with reject verdict must stay put, got %s", desired)
	}
}

func TestDeriveFailedIsLeftAlone(t *testing.T) {
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusFailed}
	facts := repository.AssetFacts{RenditionCount: 3, HasMetadata: true}

	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusUnchanged {
		t.Fatalf("failed assets must not be auto-corrected, got %s", desired)
	}
}

func TestDeriveUploadedWithNoArtifactsIsConsistent(t *testing.T) {
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusUploaded}

	desired, _ := deriveDesiredAssetState(asset, repository.AssetFacts{})
	if desired != domain.StatusUnchanged {
		t.Fatalf("uploaded with no artifacts is the normal pre-pipeline state, got %s", desired)
	}
}

func TestDeriveStatusBehindArtifacts(t *testing.T) {
	// Thumbnails and metadata exist but the asset still says thumbnailing:
	// a crash after the artifact write but before the status update.
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusThumbnailing}
	facts := repository.AssetFacts{RenditionCount: 3, HasMetadata: true}

	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusEmbedding {
		t.Fatalf("expected embedding, got %s", desired)
	}
}

func TestDeriveStatusAheadOfArtifacts(t *testing.T) {
	// The asset claims to be scoring but no metadata was ever written.
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusScoring}
	facts := repository.AssetFacts{RenditionCount: 3}

	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusExtracting {
		t.Fatalf("expected extracting, got %s", desired)
	}
}

func TestDeriveConsistentInFlightStatus(t *testing.T) {
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusEmbedding}
	facts := repository.AssetFacts{RenditionCount: 3, HasMetadata: true}

	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusUnchanged {
		t.Fatalf("embedding with thumbnail and metadata artifacts is consistent, got %s", desired)
	}
}

func TestDeriveArchivePlanSkipsMissingStages(t *testing.T) {
	// Archives never thumbnail or embed, so missing renditions and
	// embeddings must not pull them backwards.
	asset := repository.Asset{Kind: domain.KindArchive, Status: domain.StatusScoring}
	facts := repository.AssetFacts{HasMetadata: true}

	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusUnchanged {
		t.Fatalf("archive in scoring with metadata is consistent, got %s", desired)
	}
}

func TestDeriveAllArtifactsPresentWantsFinalize(t *testing.T) {
	asset := repository.Asset{Kind: domain.KindImage, Status: domain.StatusExtracting}
	facts := repository.AssetFacts{
		RenditionCount:    3,
		HasMetadata:       true,
		HasEmbedding:      true,
		ComplianceVerdict: "pass",
	}

	desired, _ := deriveDesiredAssetState(asset, facts)
	if desired != domain.StatusFinalizing {
		t.Fatalf("all artifacts present must derive finalizing, got %s", desired)
	}
}

func TestFirstIncompleteStage(t *testing.T) {
	cases := []struct {
		name  string
		kind  string
		facts repository.AssetFacts
		want  string
	}{
		{"nothing done", domain.KindImage, repository.AssetFacts{}, domain.StageThumbnail},
		{"thumbnails done", domain.KindImage, repository.AssetFacts{RenditionCount: 3}, domain.StageExtract},
		{"metadata done", domain.KindImage, repository.AssetFacts{RenditionCount: 3, HasMetadata: true}, domain.StageEmbed},
		{"embedding done", domain.KindImage, repository.AssetFacts{RenditionCount: 3, HasMetadata: true, HasEmbedding: true}, domain.StageScore},
		{"scored", domain.KindImage, repository.AssetFacts{RenditionCount: 3, HasMetadata: true, HasEmbedding: true, ComplianceVerdict: "pass"}, domain.StageFinalize},
		{"archive nothing done", domain.KindArchive, repository.AssetFacts{}, domain.StageExtract},
		{"archive scored", domain.KindArchive, repository.AssetFacts{HasMetadata: true, ComplianceVerdict: "review"}, domain.StageFinalize},
	}

	for _, tc := range cases {
		if got := firstIncompleteStage(tc.kind, tc.facts); got != tc.want {
			t.Fatalf("%s: firstIncompleteStage = %s, want %s", tc.name, got, tc.want)
		}
	}
}
