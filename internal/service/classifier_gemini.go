package service

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClassifier 基于官方 genai SDK 的分类器
type GeminiClassifier struct {
	cli   *genai.Client
	model string
}

// NewGeminiClassifier 创建 Gemini 分类器
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiClassifier{cli: cli, model: model}, nil
}

// Classify 温度固定为 0，只取第一个候选的文本
func (g *GeminiClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: &temperature},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoLabel
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}
