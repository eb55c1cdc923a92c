package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/repository"
)

// 翻页关键词
var paginationTokens = map[string]struct{}{
	"more":        {},
	"next":        {},
	"more please": {},
	"show more":   {},
	"load more":   {},
}

// 问候关键词
var greetingTokens = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"hi there":       {},
	"hello there":    {},
	"hey there":      {},
	"howdy":          {},
	"yo":             {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
}

// 完全重置会话的短语
var resetPhrases = map[string]struct{}{
	"something else": {},
	"change it":      {},
	"start over":     {},
	"reset":          {},
	"try again":      {},
}

// normalizeUtterance 小写、去首尾空白和结尾标点
func normalizeUtterance(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, "!.?, ")
	return strings.Join(strings.Fields(s), " ")
}

// IsResetPhrase 是否是"换一个"之类的重置短语
func IsResetPhrase(utterance string) bool {
	_, ok := resetPhrases[normalizeUtterance(utterance)]
	return ok
}

// IntentRouter 意图路由：高频意图走本地关键词，其余交给外部分类器
type IntentRouter struct {
	catalog    *repository.Catalog
	classifier Classifier
	extractor  *SlotExtractor
}

// NewIntentRouter 创建路由
func NewIntentRouter(catalog *repository.Catalog, classifier Classifier, extractor *SlotExtractor) *IntentRouter {
	if classifier == nil {
		classifier = NopClassifier{}
	}
	return &IntentRouter{catalog: catalog, classifier: classifier, extractor: extractor}
}

// Classify 依次检查：翻页 -> 问候 -> 本地可确定的电影请求/情绪 -> 外部分类器
// 翻页词总是路由到 More，没有结果时由会话给出"重新开始"提示
// 分类器失败或返回枚举外的值时为 Unrelated
func (r *IntentRouter) Classify(ctx context.Context, utterance string) model.Intent {
	norm := normalizeUtterance(utterance)

	if _, ok := paginationTokens[norm]; ok {
		return model.IntentMore
	}
	if _, ok := greetingTokens[norm]; ok {
		return model.IntentGreeting
	}

	// 按钮回复和直接提到类型的消息不需要再问分类器
	if r.isOptionReply(utterance) {
		return model.IntentMovieRequest
	}
	if r.extractor != nil {
		if _, ok := r.extractor.mentionedGenre(utterance); ok {
			return model.IntentMovieRequest
		}
	}
	if DetectMood(utterance) != MoodNone {
		return model.IntentMoodDescription
	}

	answer, err := r.classifier.Classify(ctx, buildIntentPrompt(utterance))
	if err != nil {
		log.Debug().Err(err).Msg("[IntentRouter] 分类器不可用，按 unrelated 处理")
		return model.IntentUnrelated
	}
	intent, ok := model.ParseIntent(answer)
	if !ok {
		log.Debug().Str("answer", answer).Msg("[IntentRouter] 分类器返回未知意图")
		return model.IntentUnrelated
	}
	return intent
}

func (r *IntentRouter) isOptionReply(utterance string) bool {
	if r.catalog.HasGenre(utterance) {
		return true
	}
	if _, ok := model.LengthBucketFromLabel(utterance); ok {
		return true
	}
	if _, ok := model.AudienceFromLabel(utterance); ok {
		return r.catalog.HasAdultFlag()
	}
	return false
}
