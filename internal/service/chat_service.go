package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/metrics"
	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/repository"
	"github.com/user/moviechat/internal/utils"
)

// DefaultSessionID 请求没有带会话标识时使用
const DefaultSessionID = "default"

// 固定回复文案
const (
	GreetingText    = "👋 Hey! I'm here to help you find the perfect movie. What's your vibe today?"
	UnrelatedText   = "🤖 I'm here to help you discover great movies. Tell me how you're feeling or what you're in the mood for!"
	EnglishOnlyText = "❌ English only please."
	NoMatchText     = "😕 No movies found for your preferences. Try another combo."
	NoMoreText      = "That's all I've got for this combo. Say \"something else\" to try a different one."
	StartOverText   = "I don't have any picks lined up yet. Let's start over: what kind of movie are you in the mood for?"
	ResultsText     = "🎬 Here are some movies you might enjoy:"
	BroadenedText   = "🎬 Nothing matched exactly, so here are some close picks:"
	MoreResultsText = "🎬 Here are a few more:"
)

// ChatConfig 对话参数
type ChatConfig struct {
	PageSize  int
	Recommend RecommendConfig
}

// Options 前端按钮需要的选项
type Options struct {
	Genres           []string `json:"genres"`
	Lengths          []string `json:"lengths"`
	Audiences        []string `json:"audiences,omitempty"`
	AudienceRequired bool     `json:"audience_required"`
}

// ChatService 会话状态机：收集偏好 -> 推荐 -> 翻页，偏好变化后回到收集阶段
type ChatService struct {
	catalog     *repository.Catalog
	sessions    *repository.SessionStore
	router      *IntentRouter
	extractor   *SlotExtractor
	recommender *Recommender
	pageSize    int
}

// NewChatService 组装对话服务；classifier 为 nil 时只使用本地规则
func NewChatService(catalog *repository.Catalog, sessions *repository.SessionStore, classifier Classifier, rnd utils.Random, cfg ChatConfig) *ChatService {
	if classifier == nil {
		classifier = NopClassifier{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}

	extractor := NewSlotExtractor(catalog, classifier, NewMoodPicker(catalog.GenreVocabulary(), rnd))
	return &ChatService{
		catalog:     catalog,
		sessions:    sessions,
		router:      NewIntentRouter(catalog, classifier, extractor),
		extractor:   extractor,
		recommender: NewRecommender(catalog, rnd, cfg.Recommend),
		pageSize:    cfg.PageSize,
	}
}

// Options 当前目录下的全部选项
func (s *ChatService) Options() Options {
	opts := Options{
		Genres:           s.catalog.GenreVocabulary(),
		Lengths:          model.LengthLabels(),
		AudienceRequired: s.catalog.HasAdultFlag(),
	}
	if opts.AudienceRequired {
		opts.Audiences = model.AudienceLabels()
	}
	return opts
}

// Handle 处理一条用户消息，任何分支都返回结构化回复
// 同一会话的消息按到达顺序串行处理
func (s *ChatService) Handle(ctx context.Context, sessionID, utterance string) model.ChatResponse {
	utterance = strings.TrimSpace(utterance)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	if utterance == "" {
		return s.reply("empty", model.ChatResponse{Response: UnrelatedText})
	}
	if !isEnglish(utterance) {
		return s.reply("english_only", model.ChatResponse{Response: EnglishOnlyText})
	}

	sess, release := s.sessions.Acquire(sessionID)
	defer release()
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))

	if IsResetPhrase(utterance) {
		log.Info().Str("session", sessionID).Msg("[ChatService] 用户要求重新开始")
		sess.Reset()
		return s.ask(sess, sess.Slots.Missing(s.catalog.HasAdultFlag()))
	}

	intent := s.router.Classify(ctx, utterance)
	metrics.MessagesTotal.WithLabelValues(string(intent)).Inc()
	log.Debug().Str("session", sessionID).Str("intent", string(intent)).Str("state", sess.State().String()).Msg("[ChatService] 收到消息")

	switch intent {
	case model.IntentMore:
		return s.nextPage(sess)
	case model.IntentGreeting:
		return s.reply("greeting", model.ChatResponse{Response: GreetingText})
	case model.IntentUnrelated:
		return s.reply("unrelated", model.ChatResponse{Response: UnrelatedText})
	default:
		return s.collect(ctx, sess, utterance)
	}
}

// collect 抽取并合并偏好；完整后返回第一页
func (s *ChatService) collect(ctx context.Context, sess *model.Session, utterance string) model.ChatResponse {
	upd := s.extractor.Extract(ctx, utterance, sess.Slots)

	if applySlotUpdate(&sess.Slots, upd) && sess.Computed {
		// 单项变化：保留其他偏好，丢弃旧结果
		log.Info().Str("session", sess.ID).Str("slots", sess.Slots.Key()).Msg("[ChatService] 偏好变化，结果失效")
		sess.InvalidateResults()
	}
	if upd.MoodMessage != "" {
		sess.MoodMessage = upd.MoodMessage
	}

	if missing := sess.Slots.Missing(s.catalog.HasAdultFlag()); missing != model.SlotNone {
		return s.ask(sess, missing)
	}

	broadened := false
	if !sess.Computed {
		rec := s.recommender.Recommend(sess.Slots)
		sess.SetResults(rec.Results)
		broadened = rec.Broadened
		if len(rec.Results) == 0 {
			metrics.RecommendationsComputed.WithLabelValues("empty").Inc()
		} else {
			metrics.RecommendationsComputed.WithLabelValues("ok").Inc()
		}
		log.Info().Str("session", sess.ID).Str("slots", sess.Slots.Key()).Int("results", len(rec.Results)).Bool("broadened", rec.Broadened).Msg("[ChatService] 生成推荐")
	}

	if !sess.HasResults() {
		return s.reply("no_match", model.ChatResponse{Response: NoMatchText, Note: sess.TakeMoodMessage()})
	}

	text := ResultsText
	if broadened {
		text = BroadenedText
	}
	page := sess.FirstPage(s.pageSize)
	return s.reply("results", model.ChatResponse{
		Response: text,
		Cards:    s.recommender.Cards(page),
		Note:     sess.TakeMoodMessage(),
	})
}

// nextPage 翻页；没有更多时游标不变
func (s *ChatService) nextPage(sess *model.Session) model.ChatResponse {
	if !sess.Computed {
		return s.reply("start_over", model.ChatResponse{Response: StartOverText})
	}
	if !sess.HasResults() {
		return s.reply("no_match", model.ChatResponse{Response: NoMatchText})
	}
	page := sess.NextPage(s.pageSize)
	if len(page) == 0 {
		return s.reply("no_more", model.ChatResponse{Response: NoMoreText})
	}
	return s.reply("more", model.ChatResponse{
		Response: MoreResultsText,
		Cards:    s.recommender.Cards(page),
	})
}

// ask 请求用户补充某一项偏好
func (s *ChatService) ask(sess *model.Session, slot model.Slot) model.ChatResponse {
	resp := model.ChatResponse{Note: sess.TakeMoodMessage()}
	switch slot {
	case model.SlotLength:
		resp.Response, resp.Options = model.AskLength, model.LengthLabels()
	case model.SlotAudience:
		resp.Response, resp.Options = model.AskAdult, model.AudienceLabels()
	default:
		resp.Response, resp.Options = model.AskGenre, s.catalog.GenreVocabulary()
	}
	return s.reply("ask_"+slot.String(), resp)
}

func (s *ChatService) reply(kind string, resp model.ChatResponse) model.ChatResponse {
	metrics.ResponsesTotal.WithLabelValues(kind).Inc()
	return resp
}

// applySlotUpdate 合并偏好，返回是否有变化
// 未填写的项直接写入；已填写的项只接受明确的重述（按钮、直接提到类型、情绪）
func applySlotUpdate(slots *model.Slots, upd SlotUpdate) bool {
	changed := false

	if upd.Genre != "" && upd.Genre != slots.Genre && (slots.Genre == "" || upd.GenreSource.Explicit()) {
		slots.Genre = upd.Genre
		changed = true
	}
	if upd.Length != model.LengthUnset && upd.Length != slots.Length && (slots.Length == model.LengthUnset || upd.LengthExplicit) {
		slots.Length = upd.Length
		changed = true
	}
	if upd.Audience != nil && (slots.Audience == nil || (upd.AudienceExplicit && *slots.Audience != *upd.Audience)) {
		slots.Audience = model.BoolPtr(*upd.Audience)
		changed = true
	}
	return changed
}

// 常见的排版符号也视为英文
var typographic = map[rune]struct{}{
	'‘': {}, '’': {}, '“': {}, '”': {}, '…': {}, '–': {}, '—': {},
}

// isEnglish 只接受 ASCII 文本
func isEnglish(text string) bool {
	for _, r := range text {
		if r < 0x80 {
			continue
		}
		if _, ok := typographic[r]; ok {
			continue
		}
		return false
	}
	return true
}
