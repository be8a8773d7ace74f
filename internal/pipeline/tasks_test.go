package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"mediavault_backend/internal/assets/domain"
)

func TestNewStageTaskPayloadRoundTrip(t *testing.T) {
	payload := StagePayload{
		AssetID:        uuid.NewString(),
		OrganizationID: uuid.NewString(),
	}

	task, err := NewStageTask(domain.StageExtract, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskAssetExtract {
		t.Fatalf("task type = %s, want %s", task.Type(), TaskAssetExtract)
	}

	decoded, err := ParseStagePayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if decoded != payload {
		t.Fatalf("payload round trip mismatch: %+v != %+v", decoded, payload)
	}
}

func TestNewStageTaskRejectsUnknownStage(t *testing.T) {
	if _, err := NewStageTask("transcode", StagePayload{}); err == nil {
		t.Fatalf("expected an error for an unknown stage")
	}
}

func TestEveryStageHasATaskType(t *testing.T) {
	for _, kind := range []string{domain.KindImage, domain.KindArchive} {
		for _, stage := range domain.StagePlan(kind) {
			if _, ok := taskTypeByStage[stage]; !ok {
				t.Fatalf("stage %s has no task type", stage)
			}
		}
	}
}

type stubQueueConfig struct {
	redisURL string
}

func (c stubQueueConfig) GetRedisURL() string         { return c.redisURL }
func (c stubQueueConfig) GetRedisTLSInsecure() bool   { return false }
func (c stubQueueConfig) GetAsynqQueueName() string   { return "pipeline" }
func (c stubQueueConfig) GetAsynqConcurrency() int    { return 1 }
func (c stubQueueConfig) GetPipelineMaxAttempts() int { return 3 }

func TestClientEnqueueStage(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(stubQueueConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	assetID := uuid.New()
	orgID := uuid.New()
	if err := client.EnqueueStage(context.Background(), domain.StageThumbnail, assetID, orgID); err != nil {
		t.Fatalf("enqueue stage: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })

	var tasks []*asynq.TaskInfo
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tasks, err = inspector.ListPendingTasks("pipeline")
		if err == nil && len(tasks) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 pending task, got %d (err %v)", len(tasks), err)
	}

	info := tasks[0]
	if info.Type != TaskAssetThumbnail {
		t.Fatalf("task type = %s, want %s", info.Type, TaskAssetThumbnail)
	}
	if info.MaxRetry != 3 {
		t.Fatalf("max retry = %d, want 3", info.MaxRetry)
	}

	payload, err := ParseStagePayload(asynq.NewTask(info.Type, info.Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.AssetID != assetID.String() || payload.OrganizationID != orgID.String() {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubQueueConfig{}); err == nil {
		t.Fatalf("expected an error without a redis url")
	}
}
