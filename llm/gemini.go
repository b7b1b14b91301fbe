package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"chatline/config"
)

const defaultSystemInstruction = `
You are a helpful assistant in a chat application.
Answer the user's latest message clearly and concisely.
Reply in the same language the user writes in.
`

type GeminiGenerator struct {
	client            *genai.Client
	modelName         string
	systemInstruction string
}

// NewGeminiGenerator 는 GEMINI_API_KEY 환경변수로 클라이언트를 만든다.
func NewGeminiGenerator(ctx context.Context, cfg config.GenerationConfig) (*GeminiGenerator, error) {
	if cfg.Provider != "google" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	instruction := strings.TrimSpace(cfg.SystemInstruction)
	if instruction == "" {
		instruction = strings.TrimSpace(defaultSystemInstruction)
	}
	return &GeminiGenerator{
		client:            client,
		modelName:         cfg.ModelName,
		systemInstruction: instruction,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (Result, error) {
	start := time.Now()

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.modelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: g.systemInstruction}}},
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Result{}, fmt.Errorf("%w: response has no text", ErrGenerationFailed)
	}

	res := Result{
		Text:         text,
		ModelName:    g.modelName,
		ModelVersion: resp.ModelVersion,
		Latency:      time.Since(start),
	}
	if resp.UsageMetadata != nil {
		res.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		res.CompletionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return res, nil
}
