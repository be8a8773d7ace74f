// Package pipeline runs the asset processing pipeline: asynq tasks over
// Redis, one task type per stage, chained by the worker until the asset is
// ready.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"mediavault_backend/internal/assets/domain"
)

const (
	TaskAssetThumbnail = "assets.thumbnail"
	TaskAssetExtract   = "assets.extract"
	TaskAssetEmbed     = "assets.embed"
	TaskAssetScore     = "assets.score"
	TaskAssetFinalize  = "assets.finalize"
)

// taskTypeByStage maps domain stage names to asynq task types.
var taskTypeByStage = map[string]string{
	domain.StageThumbnail: TaskAssetThumbnail,
	domain.StageExtract:   TaskAssetExtract,
	domain.StageEmbed:     TaskAssetEmbed,
	domain.StageScore:     TaskAssetScore,
	domain.StageFinalize:  TaskAssetFinalize,
}

// StagePayload is the payload shared by all pipeline stage tasks.
type StagePayload struct {
	AssetID        string `json:"assetId"`
	OrganizationID string `json:"organizationId"`
}

// NewStageTask builds the asynq task for a pipeline stage.
func NewStageTask(stage string, payload StagePayload) (*asynq.Task, error) {
	taskType, ok := taskTypeByStage[stage]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline stage %q", stage)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

// ParseStagePayload decodes a stage task payload.
func ParseStagePayload(task *asynq.Task) (StagePayload, error) {
	var payload StagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StagePayload{}, err
	}
	return payload, nil
}
