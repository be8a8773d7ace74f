package domain

import "testing"

func TestCanTransitionHappyPath(t *testing.T) {
	steps := [][2]string{
		{StatusPendingUpload, StatusUploaded},
		{StatusUploaded, StatusThumbnailing},
		{StatusThumbnailing, StatusExtracting},
		{StatusExtracting, StatusEmbedding},
		{StatusEmbedding, StatusScoring},
		{StatusScoring, StatusFinalizing},
		{StatusFinalizing, StatusReady},
	}

	for _, step := range steps {
		if !CanTransition(step[0], step[1]) {
			t.Fatalf("expected %s -> %s to be allowed", step[0], step[1])
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	if CanTransition(StatusUploaded, StatusReady) {
		t.Fatalf("uploaded -> ready must not skip the pipeline")
	}
	if CanTransition(StatusPendingUpload, StatusThumbnailing) {
		t.Fatalf("pending_upload -> thumbnailing must go through uploaded")
	}
	if CanTransition(StatusThumbnailing, StatusEmbedding) {
		t.Fatalf("thumbnailing -> embedding must go through extracting")
	}
}

func TestReadyIsTerminal(t *testing.T) {
	for to := range knownStatuses {
		if CanTransition(StatusReady, to) {
			t.Fatalf("ready -> %s must not be allowed", to)
		}
	}
	if !IsTerminalStatus(StatusReady) {
		t.Fatalf("ready must be terminal")
	}
}

func TestQuarantineOnlyReleasesToScoring(t *testing.T) {
	if !CanTransition(StatusQuarantined, StatusScoring) {
		t.Fatalf("quarantined -> scoring (admin release) must be allowed")
	}
	for to := range knownStatuses {
		if to == StatusScoring {
			continue
		}
		if CanTransition(StatusQuarantined, to) {
			t.Fatalf("quarantined -> %s must not be allowed", to)
		}
	}
}

func TestFailedResumesAtStageEntries(t *testing.T) {
	allowed := []string{StatusUploaded, StatusThumbnailing, StatusExtracting, StatusEmbedding, StatusScoring, StatusFinalizing}
	for _, to := range allowed {
		if !CanTransition(StatusFailed, to) {
			t.Fatalf("failed -> %s (retry entry) must be allowed", to)
		}
	}
	if CanTransition(StatusFailed, StatusReady) {
		t.Fatalf("failed -> ready must not be allowed")
	}
	if CanTransition(StatusFailed, StatusQuarantined) {
		t.Fatalf("failed -> quarantined must not be allowed")
	}
}

func TestTransientStatuses(t *testing.T) {
	transient := []string{StatusThumbnailing, StatusExtracting, StatusEmbedding, StatusScoring, StatusFinalizing}
	for _, status := range transient {
		if !IsTransientStatus(status) {
			t.Fatalf("expected %s to be transient", status)
		}
	}
	for _, status := range []string{StatusPendingUpload, StatusUploaded, StatusReady, StatusFailed, StatusQuarantined} {
		if IsTransientStatus(status) {
			t.Fatalf("expected %s not to be transient", status)
		}
	}
}

func TestStagePlanTransitionsAreLegal(t *testing.T) {
	// Every consecutive pair of stage statuses in every plan must be a legal
	// transition, and the last stage must be allowed to reach ready.
	for kind := range knownKinds {
		plan := StagePlan(kind)
		prev := StatusUploaded
		for _, stage := range plan {
			active := ActiveStatus(stage)
			if active == "" {
				t.Fatalf("kind %s: stage %s has no active status", kind, stage)
			}
			if !CanTransition(prev, active) {
				t.Fatalf("kind %s: %s -> %s not allowed by transition table", kind, prev, active)
			}
			prev = active
		}
		if prev != StatusFinalizing {
			t.Fatalf("kind %s: plan must end with the finalize stage, ended at %s", kind, prev)
		}
	}
}

func TestStagePlansByKind(t *testing.T) {
	if HasStage(KindArchive, StageThumbnail) {
		t.Fatalf("archives must not run the thumbnail stage")
	}
	if HasStage(KindArchive, StageEmbed) {
		t.Fatalf("archives must not run the embed stage")
	}
	if !HasStage(KindVideo, StageThumbnail) {
		t.Fatalf("video must run the thumbnail stage for its preview rendition")
	}
	if !HasStage(KindImage, StageEmbed) {
		t.Fatalf("images must run the embed stage")
	}
	if FirstStage(KindOther) != StageExtract {
		t.Fatalf("unclassified assets must start at extract, got %s", FirstStage(KindOther))
	}
}

func TestEntryStatus(t *testing.T) {
	if got := EntryStatus(KindImage, StageThumbnail); got != StatusUploaded {
		t.Fatalf("first stage entry must be uploaded, got %s", got)
	}
	if got := EntryStatus(KindImage, StageEmbed); got != StatusExtracting {
		t.Fatalf("embed entry for images must be extracting, got %s", got)
	}
	if got := EntryStatus(KindArchive, StageScore); got != StatusExtracting {
		t.Fatalf("score entry for archives must be extracting, got %s", got)
	}
	if got := EntryStatus(KindImage, "bogus"); got != StatusUnchanged {
		t.Fatalf("unknown stage must yield StatusUnchanged, got %s", got)
	}
}

func TestNextStage(t *testing.T) {
	next, ok := NextStage(KindImage, StageThumbnail)
	if !ok || next != StageExtract {
		t.Fatalf("thumbnail -> extract expected for images, got %s ok=%v", next, ok)
	}
	next, ok = NextStage(KindArchive, StageExtract)
	if !ok || next != StageScore {
		t.Fatalf("extract -> score expected for archives, got %s ok=%v", next, ok)
	}
	if _, ok := NextStage(KindImage, StageFinalize); ok {
		t.Fatalf("finalize must be the last stage")
	}
}

func TestKindFromContentType(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":                  KindImage,
		"IMAGE/PNG":                   KindImage,
		"video/mp4":                   KindVideo,
		"application/pdf":             KindPDF,
		"application/pdf; name=x.pdf": KindPDF,
		"application/zip":             KindArchive,
		"application/x-tar":           KindArchive,
		"audio/mpeg":                  KindOther,
		"":                            KindOther,
	}
	for contentType, want := range cases {
		if got := KindFromContentType(contentType); got != want {
			t.Fatalf("KindFromContentType(%q) = %s, want %s", contentType, got, want)
		}
	}
}
