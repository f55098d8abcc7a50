package suggest

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel 未配置时使用的模型
const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey 未配置 GEMINI_API_KEY
var ErrNoAPIKey = errors.New("gemini api key not set")

// Generator 文本生成后端（测试中可替换）
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// GeminiGenerator 基于 google genai SDK 的生成后端，要求 JSON 输出
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator 创建客户端；不发起网络请求
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate 单轮生成
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0)),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return result.Text(), nil
}
