package domain

// Pipeline stage names. Each stage maps to exactly one transient status that
// an asset carries while the stage is in flight.
const (
	StageThumbnail = "thumbnail"
	StageExtract   = "extract"
	StageEmbed     = "embed"
	StageScore     = "score"
	StageFinalize  = "finalize"
)

// stagePlans defines which stages run for each asset kind, in order.
// Archives and unclassified files have nothing to thumbnail and no visual
// content worth embedding; video and PDF run the thumbnail stage but get a
// preview rendition instead of resized thumbnails.
var stagePlans = map[string][]string{
	KindImage:   {StageThumbnail, StageExtract, StageEmbed, StageScore, StageFinalize},
	KindVideo:   {StageThumbnail, StageExtract, StageEmbed, StageScore, StageFinalize},
	KindPDF:     {StageThumbnail, StageExtract, StageEmbed, StageScore, StageFinalize},
	KindArchive: {StageExtract, StageScore, StageFinalize},
	KindOther:   {StageExtract, StageScore, StageFinalize},
}

// activeStatusByStage maps a stage to the status an asset carries while that
// stage runs.
var activeStatusByStage = map[string]string{
	StageThumbnail: StatusThumbnailing,
	StageExtract:   StatusExtracting,
	StageEmbed:     StatusEmbedding,
	StageScore:     StatusScoring,
	StageFinalize:  StatusFinalizing,
}

// StagePlan returns the ordered stages for an asset kind. Unknown kinds get
// the KindOther plan.
func StagePlan(kind string) []string {
	plan, ok := stagePlans[kind]
	if !ok {
		plan = stagePlans[KindOther]
	}
	out := make([]string, len(plan))
	copy(out, plan)
	return out
}

// FirstStage returns the first pipeline stage for an asset kind.
func FirstStage(kind string) string {
	return StagePlan(kind)[0]
}

// NextStage returns the stage that follows the given one in the kind's plan.
// The second return value is false when the given stage is the last.
func NextStage(kind, stage string) (string, bool) {
	plan := StagePlan(kind)
	for i, s := range plan {
		if s == stage && i+1 < len(plan) {
			return plan[i+1], true
		}
	}
	return "", false
}

// HasStage reports whether the kind's plan includes the given stage.
func HasStage(kind, stage string) bool {
	for _, s := range StagePlan(kind) {
		if s == stage {
			return true
		}
	}
	return false
}

// ActiveStatus returns the status an asset carries while the given stage is
// in flight.
func ActiveStatus(stage string) string {
	return activeStatusByStage[stage]
}

// StageForStatus returns the stage that is in flight for a transient status,
// or "" for non-transient statuses.
func StageForStatus(status string) string {
	for stage, active := range activeStatusByStage {
		if active == status {
			return stage
		}
	}
	return ""
}

// EntryStatus returns the status an asset must be in for the given stage to
// start: the active status of the preceding stage, or uploaded for the first
// stage in the plan.
func EntryStatus(kind, stage string) string {
	plan := StagePlan(kind)
	for i, s := range plan {
		if s != stage {
			continue
		}
		if i == 0 {
			return StatusUploaded
		}
		return ActiveStatus(plan[i-1])
	}
	return StatusUnchanged
}
