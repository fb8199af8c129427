package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiOracle implements Client on the Gemini API.
type GeminiOracle struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

const defaultGeminiModel = "gemini-2.5-flash"

// NewGeminiOracle creates a Gemini-backed oracle client.
func NewGeminiOracle(cfg Config, logger *zap.Logger) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiOracle{client: client, model: model, logger: logger}, nil
}

// GeneratePlan sends one synchronous generation request. File payloads ride
// as inline parts; resumable uploads ride as file-reference parts. There is
// a single outstanding request and no speculative retry.
func (g *GeminiOracle) GeneratePlan(ctx context.Context, req *PlanRequest) (*PlanResponse, error) {
	if len(req.Inline) > 0 && len(req.StoragePaths) > 0 {
		return nil, fmt.Errorf("request carries both inline payloads and storage paths")
	}

	parts := []*genai.Part{genai.NewPartFromText(buildGeneratePrompt(req))}

	for _, f := range req.Inline {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, f.ContentType))
	}
	for _, uri := range req.StoragePaths {
		parts = append(parts, genai.NewPartFromURI(uri, "application/octet-stream"))
	}

	g.logger.Debug("generating plan",
		zap.String("model", g.model),
		zap.Int("inline_files", len(req.Inline)),
		zap.Int("storage_paths", len(req.StoragePaths)))

	text, err := g.complete(ctx, generateSystemPrompt, parts)
	if err != nil {
		return nil, err
	}

	var resp PlanResponse
	if err := json.Unmarshal([]byte(stripFences(text)), &resp); err != nil {
		return nil, &ContractError{Reason: "response is not valid JSON", Err: err}
	}
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "oracle reported failure without detail"
		}
		return nil, &ContractError{Reason: reason}
	}
	if len(resp.Plan) == 0 {
		return nil, &ContractError{Reason: "response contains no plan items"}
	}
	for i, item := range resp.Plan {
		if item.Action == "" && item.Title == "" {
			return nil, &ContractError{Reason: fmt.Sprintf("plan item %d has neither title nor action", i)}
		}
	}

	return &resp, nil
}

// ProposeModifications asks for a modification list and returns the raw
// text. Grammar validation belongs to the refinement parser.
func (g *GeminiOracle) ProposeModifications(ctx context.Context, req *RefineRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(buildRefinePrompt(req))}
	return g.complete(ctx, refineSystemPrompt, parts)
}

func (g *GeminiOracle) complete(ctx context.Context, system string, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", &ContractError{Reason: "generation request failed", Err: err}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", &ContractError{Reason: "empty completion"}
	}
	return text, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
