// Package agent hosts the AI tagging agent that suggests descriptive tags
// and safety flags for assets during compliance scoring.
package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/pipeline/processors"
	"mediavault_backend/platform/ai/moonshot"
	"mediavault_backend/platform/logger"
)

// maxInlineImageBytes caps the image payload sent to the model. Larger
// originals are described by metadata only.
const maxInlineImageBytes = 8 << 20

// taggingResult is what the model saves through the SaveAssetTags tool.
type taggingResult struct {
	Tags        []processors.TagSuggestion
	SafetyFlags []string
	Summary     string
}

// taggerDeps accumulates the tool output of one run.
type taggerDeps struct {
	mu     sync.RWMutex
	result *taggingResult
}

func (d *taggerDeps) SetResult(r *taggingResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = r
}

func (d *taggerDeps) GetResult() *taggingResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.result
}

func (d *taggerDeps) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = nil
}

// AssetTagger runs a Kimi-backed ADK agent that looks at an asset (inline
// image bytes for images, metadata otherwise) and saves tags via a tool call.
type AssetTagger struct {
	agent           agent.Agent
	runner          *runner.Runner
	sessionService  session.Service
	appName         string
	deps            *taggerDeps
	runMu           sync.Mutex
	storage         storage.StorageService
	originalsBucket string
	log             *logger.Logger
}

// NewAssetTagger creates the tagging agent.
func NewAssetTagger(apiKey string, storageSvc storage.StorageService, originalsBucket string, log *logger.Logger) (*AssetTagger, error) {
	kimi := moonshot.NewModel(moonshot.Config{
		APIKey:          apiKey,
		Model:           "kimi-k2.5",
		DisableThinking: true,
	})

	deps := &taggerDeps{}

	tagger := &AssetTagger{
		appName:         "asset_tagger",
		deps:            deps,
		storage:         storageSvc,
		originalsBucket: originalsBucket,
		log:             log,
	}

	tools, err := buildTaggerTools(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build tagger tools: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "AssetTagger",
		Model:       kimi,
		Description: "AI agent that assigns descriptive tags and safety flags to media assets",
		Instruction: taggerInstruction,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tagger agent: %w", err)
	}

	sessionService := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        tagger.appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tagger runner: %w", err)
	}

	tagger.agent = adkAgent
	tagger.runner = r
	tagger.sessionService = sessionService

	return tagger, nil
}

// Compile-time check that AssetTagger satisfies the scorer's Tagger interface.
var _ processors.Tagger = (*AssetTagger)(nil)

// SuggestTags runs one tagging session for the asset.
func (t *AssetTagger) SuggestTags(ctx context.Context, asset repository.Asset, metadata map[string]interface{}) ([]processors.TagSuggestion, []string, error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	t.deps.Reset()

	userContent, err := t.buildUserContent(ctx, asset, metadata)
	if err != nil {
		return nil, nil, err
	}

	userID := fmt.Sprintf("asset-tagger-%s", asset.ID)
	sessionID := uuid.New().String()

	if _, err := t.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   t.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to create tagger session: %w", err)
	}
	defer func() {
		if deleteErr := t.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   t.appName,
			UserID:    userID,
			SessionID: sessionID,
		}); deleteErr != nil {
			t.log.Warn("failed to delete tagger session", "error", deleteErr)
		}
	}()

	if err := t.run(ctx, userID, sessionID, userContent); err != nil {
		return nil, nil, err
	}

	result := t.deps.GetResult()
	if result == nil {
		// One nudge: some runs answer in prose instead of calling the tool.
		retryContent := genai.NewContentFromText("You MUST call the SaveAssetTags tool now with your tags and safety flags.", "user")
		if err := t.run(ctx, userID, sessionID, retryContent); err != nil {
			return nil, nil, err
		}
		result = t.deps.GetResult()
	}
	if result == nil {
		return nil, nil, fmt.Errorf("AI did not save asset tags")
	}

	return result.Tags, result.SafetyFlags, nil
}

func (t *AssetTagger) run(ctx context.Context, userID, sessionID string, content *genai.Content) error {
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for _, err := range t.runner.Run(ctx, userID, sessionID, content, runConfig) {
		if err != nil {
			return fmt.Errorf("asset tagging failed: %w", err)
		}
	}
	return nil
}

// buildUserContent assembles the prompt: inline image bytes for reasonably
// sized images, metadata text for everything.
func (t *AssetTagger) buildUserContent(ctx context.Context, asset repository.Asset, metadata map[string]interface{}) (*genai.Content, error) {
	parts := make([]*genai.Part, 0, 2)

	if asset.Kind == domain.KindImage && asset.SizeBytes > 0 && asset.SizeBytes <= maxInlineImageBytes {
		reader, err := t.storage.DownloadFile(ctx, t.originalsBucket, asset.FileKey)
		if err != nil {
			return nil, fmt.Errorf("download original for tagging: %w", err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("read original for tagging: %w", err)
		}

		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: asset.ContentType,
				Data:     data,
			},
		})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Asset ID: %s\nFile name: %s\nKind: %s\nContent type: %s\nSize: %d bytes\n",
		asset.ID, asset.FileName, asset.Kind, asset.ContentType, asset.SizeBytes)
	if len(metadata) > 0 {
		sb.WriteString("Extracted metadata:\n")
		for key, value := range metadata {
			fmt.Fprintf(&sb, "  %s: %v\n", key, value)
		}
	}
	sb.WriteString("\nAnalyze this asset and call SaveAssetTags with your tags and any safety flags.")
	parts = append(parts, genai.NewPartFromText(sb.String()))

	return &genai.Content{Role: "user", Parts: parts}, nil
}

// SaveAssetTagsInput contains the input parameters for the SaveAssetTags tool.
type SaveAssetTagsInput struct {
	AssetID     string     `json:"assetId" description:"The UUID of the asset"`
	Tags        []TagInput `json:"tags" description:"5 to 15 short lowercase descriptive tags"`
	SafetyFlags []string   `json:"safetyFlags,omitempty" description:"Safety flags if applicable: nsfw, violence, watermarked"`
	Summary     string     `json:"summary,omitempty" description:"One sentence describing the asset"`
}

// TagInput is a single tag with its confidence.
type TagInput struct {
	Value      string  `json:"value" description:"The tag text, short and lowercase, e.g. 'sunset'"`
	Confidence float64 `json:"confidence" description:"Confidence between 0 and 1"`
}

// SaveAssetTagsOutput is the result of saving the tags.
type SaveAssetTagsOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func buildTaggerTools(deps *taggerDeps) ([]tool.Tool, error) {
	saveAssetTags, err := functiontool.New(functiontool.Config{
		Name:        "SaveAssetTags",
		Description: "Save the descriptive tags and safety flags for an asset. Call this exactly once after analyzing the asset.",
	}, func(ctx tool.Context, args SaveAssetTagsInput) (SaveAssetTagsOutput, error) {
		tags := make([]processors.TagSuggestion, 0, len(args.Tags))
		for _, item := range args.Tags {
			value := strings.ToLower(strings.TrimSpace(item.Value))
			if value == "" {
				continue
			}
			confidence := item.Confidence
			if confidence < 0 || confidence > 1 {
				confidence = 0.5
			}
			tags = append(tags, processors.TagSuggestion{Value: value, Confidence: confidence})
		}

		deps.SetResult(&taggingResult{
			Tags:        tags,
			SafetyFlags: args.SafetyFlags,
			Summary:     args.Summary,
		})

		return SaveAssetTagsOutput{Success: true, Message: fmt.Sprintf("saved %d tags", len(tags))}, nil
	})
	if err != nil {
		return nil, err
	}

	return []tool.Tool{saveAssetTags}, nil
}

const taggerInstruction = `You are an expert digital asset librarian. You receive one media asset at a
time: for images you see the image itself, for other kinds you see the file
facts and extracted metadata.

Your job:
1. Suggest 5 to 15 short, lowercase, descriptive tags a person would search
   for (subjects, colors, mood, setting, style). Tag only what you can
   actually see or infer from the metadata.
2. Raise safety flags ONLY when clearly applicable, from this vocabulary:
   nsfw, violence, watermarked.
3. Call the SaveAssetTags tool exactly once with your result. Never answer
   in prose without calling the tool.`
