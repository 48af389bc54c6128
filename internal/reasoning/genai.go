package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIClient implements Client using Google's Gemini API.
type GenAIClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

// NewGenAIClient creates a new GenAI reasoning client.
func NewGenAIClient(apiKey, model, embeddingModel string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if embeddingModel == "" {
		embeddingModel = "gemini-embedding-001"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

// Complete sends a completion request and returns the generated text.
func (c *GenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		var role genai.Role = genai.RoleUser
		if turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	temp := float32(req.Temperature)
	cfg.Temperature = &temp

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", remoteErr("complete", genaiKind(err), err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", remoteErr("complete", FailureServerError, errors.New("no completion returned"))
	}
	return text, nil
}

// Embed generates a vector embedding for the given text.
func (c *GenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := c.client.Models.EmbedContent(ctx,
		c.embeddingModel,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		},
	)
	if err != nil {
		return nil, remoteErr("embed", genaiKind(err), err)
	}

	if len(result.Embeddings) == 0 {
		return nil, remoteErr("embed", FailureServerError, errors.New("no embeddings returned"))
	}

	return result.Embeddings[0].Values, nil
}

// genaiKind maps a GenAI SDK error to the failure taxonomy.
func genaiKind(err error) FailureKind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return kindFromStatus(apiErr.Code)
	}
	return transportKind(err)
}
