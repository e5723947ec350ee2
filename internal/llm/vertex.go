package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexProvider calls Gemini through Vertex AI using application default
// credentials.
type VertexProvider struct {
	Project string
	Region  string
	Model   string
	client  *genai.Client
}

// NewVertexProvider creates a Vertex AI client. An empty project leaves the
// provider unconfigured.
func NewVertexProvider(ctx context.Context, project, region, model string) (*VertexProvider, error) {
	p := &VertexProvider{Project: project, Region: region, Model: model}
	if project == "" {
		return p, nil
	}
	client, err := genai.NewClient(ctx, project, region)
	if err != nil {
		return nil, fmt.Errorf("creating vertex ai client: %w", err)
	}
	p.client = client
	return p, nil
}

func (v *VertexProvider) IsConfigured() bool {
	return v.client != nil
}

func (v *VertexProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if v.client == nil {
		return "", fmt.Errorf("vertex ai project not configured")
	}
	model := v.client.GenerativeModel(v.Model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(int32(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex ai error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertex ai returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

func (v *VertexProvider) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
