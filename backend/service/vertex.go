package service

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/AnTengye/clausewise/backend/config"
)

// VertexGenerator generates text with a Gemini model on Vertex AI.
type VertexGenerator struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	chunkLimit int
}

// NewVertexGenerator returns ErrNotConfigured without a project and region.
// Credentials come from CredentialsFile when set, otherwise from the
// application default credentials.
func NewVertexGenerator(ctx context.Context, cfg *config.VertexConfig) (*VertexGenerator, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, ErrNotConfigured
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: genai.Ptr(cfg.MaxOutputTokens),
	}

	return &VertexGenerator{client: client, model: model, chunkLimit: cfg.ChunkLimit}, nil
}

func (g *VertexGenerator) Name() string   { return "vertex" }
func (g *VertexGenerator) ChunkLimit() int { return g.chunkLimit }

// Generate joins the text parts of the first candidate.
func (g *VertexGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	return candidateText(resp)
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyGeneration
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyGeneration
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (g *VertexGenerator) Close() error {
	return g.client.Close()
}
