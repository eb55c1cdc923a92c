package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/moviechat/internal/utils"
)

// ollamaGenerateRequest Ollama generate API 请求结构
type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// ollamaGenerateResponse Ollama generate API 响应结构
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// OllamaClassifier 调用本地 Ollama 模型做分类
type OllamaClassifier struct {
	host   string
	model  string
	client *utils.HTTPClient
}

// NewOllamaClassifier 创建 Ollama 分类器，超时由调用方的 context 控制
func NewOllamaClassifier(host, model string) *OllamaClassifier {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaClassifier{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: utils.NewHTTPClient(0),
	}
}

// Classify 调用 /api/generate，非流式
func (o *OllamaClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	}

	var result ollamaGenerateResponse
	if err := o.client.PostJSON(ctx, o.host+"/api/generate", reqBody, &result); err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}

	return strings.TrimSpace(result.Response), nil
}
