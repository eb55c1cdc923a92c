package model

import (
	"strings"
)

// 前端据此渲染选项按钮
const (
	AskGenre  = "[[ASK_GENRE]]"
	AskLength = "[[ASK_LENGTH]]"
	AskAdult  = "[[ASK_ADULT]]"
)

// Intent 用户消息意图
type Intent string

const (
	IntentGreeting        Intent = "greeting"
	IntentMovieRequest    Intent = "movie_request"
	IntentMoodDescription Intent = "mood_description"
	IntentMore            Intent = "more"
	IntentUnrelated       Intent = "unrelated"
)

// Intents 分类器可返回的全部意图
func Intents() []Intent {
	return []Intent{IntentGreeting, IntentMovieRequest, IntentMoodDescription, IntentMore, IntentUnrelated}
}

// ParseIntent 只接受枚举内的取值
func ParseIntent(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, in := range Intents() {
		if string(in) == s {
			return in, true
		}
	}
	return IntentUnrelated, false
}

// ChatMessage 一条历史消息
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// ChatRequest /chat 请求体
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages" binding:"omitempty,max=200,dive"`
	Message   string        `json:"message" binding:"max=2000"`
	SessionID string        `json:"session_id" binding:"max=128"`
}

// Utterance 取最后一条用户消息，没有时退回 Message 字段
func (r *ChatRequest) Utterance() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return strings.TrimSpace(r.Messages[i].Content)
		}
	}
	return strings.TrimSpace(r.Message)
}

// Card 推荐卡片
type Card struct {
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	Score    float64 `json:"score"`
	Genre    string  `json:"genre"`
	Duration int     `json:"duration"`
	Overview string  `json:"overview,omitempty"`
}

// ChatResponse /chat 响应体
type ChatResponse struct {
	Response string   `json:"response"`
	Cards    []Card   `json:"cards,omitempty"`
	Note     string   `json:"note,omitempty"`
	Options  []string `json:"options,omitempty"`
}
