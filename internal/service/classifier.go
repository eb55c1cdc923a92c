package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/moviechat/internal/model"
)

var (
	// ErrClassifierUnavailable 未配置外部分类器
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	// ErrClassifierTimeout 调用超时或被限流
	ErrClassifierTimeout = errors.New("classifier timeout")
	// ErrNoLabel 分类器返回空内容
	ErrNoLabel = errors.New("classifier returned no label")
)

// UnknownLabel 分类器无法判断时约定返回的值
const UnknownLabel = "Unknown"

// Classifier 外部文本分类服务：输入提示词，返回一段文本
// 返回值只有在属于调用方给定的枚举时才会被采纳
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// ClassifierFunc 让普通函数满足 Classifier
type ClassifierFunc func(ctx context.Context, prompt string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NopClassifier 没有配置外部分类器时使用，所有调用都走本地兜底
type NopClassifier struct{}

func (NopClassifier) Classify(context.Context, string) (string, error) {
	return "", ErrClassifierUnavailable
}

// SlotCategory 分类器需要判断的偏好类别
type SlotCategory string

const (
	CategoryGenre    SlotCategory = "genre"
	CategoryLength   SlotCategory = "length"
	CategoryAudience SlotCategory = "audience"
)

// buildIntentPrompt 意图分类提示词
func buildIntentPrompt(utterance string) string {
	labels := make([]string, 0, len(model.Intents()))
	for _, in := range model.Intents() {
		labels = append(labels, "- "+string(in))
	}
	return fmt.Sprintf(`Classify the user intent from this message:
"%s"
Use mood_description when the user mainly describes how they feel, and more when they ask for additional results.
Respond only with:
%s`, utterance, strings.Join(labels, "\n"))
}

// buildSlotPrompt 偏好分类提示词，只允许返回枚举值或 Unknown
func buildSlotPrompt(utterance string, category SlotCategory, options []string) string {
	return fmt.Sprintf(`Message: "%s"
Classify the user's %s.
Valid values: %s
Respond only with one of the valid values exactly as written, or '%s'.`,
		utterance, category, strings.Join(options, ", "), UnknownLabel)
}

// pickOption 只有当回答字面上属于枚举时才采纳
func pickOption(answer string, options []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" || answer == UnknownLabel {
		return "", false
	}
	for _, opt := range options {
		if answer == opt {
			return opt, true
		}
	}
	return "", false
}
