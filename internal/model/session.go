package model

import (
	"fmt"
	"sync"
	"time"
)

// Slot 需要向用户收集的偏好项
type Slot int

const (
	SlotNone Slot = iota
	SlotGenre
	SlotLength
	SlotAudience
)

func (s Slot) String() string {
	switch s {
	case SlotGenre:
		return "genre"
	case SlotLength:
		return "length"
	case SlotAudience:
		return "audience"
	default:
		return "none"
	}
}

// Slots 会话已收集到的偏好
type Slots struct {
	Genre    string       `json:"genre,omitempty"`
	Length   LengthBucket `json:"length,omitempty"`
	Audience *bool        `json:"audience,omitempty"` // nil 表示未设置
}

// Missing 按 genre -> length -> audience 的顺序返回第一个缺失项
func (s Slots) Missing(requireAudience bool) Slot {
	if s.Genre == "" {
		return SlotGenre
	}
	if s.Length == LengthUnset {
		return SlotLength
	}
	if requireAudience && s.Audience == nil {
		return SlotAudience
	}
	return SlotNone
}

// Complete 是否可以开始推荐
func (s Slots) Complete(requireAudience bool) bool {
	return s.Missing(requireAudience) == SlotNone
}

// IsEmpty 一个偏好都没有
func (s Slots) IsEmpty() bool {
	return s.Genre == "" && s.Length == LengthUnset && s.Audience == nil
}

// Key 偏好组合的唯一标识
func (s Slots) Key() string {
	audience := "any"
	if s.Audience != nil {
		audience = fmt.Sprintf("%t", *s.Audience)
	}
	return fmt.Sprintf("%s|%d|%s", s.Genre, s.Length, audience)
}

// BoolPtr 便捷构造
func BoolPtr(v bool) *bool {
	return &v
}

// DialogueState 会话所处阶段
type DialogueState int

const (
	StateCollecting DialogueState = iota
	StateServing
)

func (s DialogueState) String() string {
	if s == StateServing {
		return "serving"
	}
	return "collecting"
}

// Session 单个对话的状态：偏好、缓存的推荐结果和翻页游标
// 调用方必须先 Lock 再读写
type Session struct {
	ID          string
	Slots       Slots
	MoodMessage string // 一次性附言，下一次回复后清空

	Results  []*MovieRecord
	Computed bool // Results 是否已按当前 Slots 计算过（可能为空）
	Cursor   int

	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// NewSession 创建会话
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// State 当前阶段
func (s *Session) State() DialogueState {
	if s.Computed {
		return StateServing
	}
	return StateCollecting
}

// HasResults 是否有可翻页的结果
func (s *Session) HasResults() bool {
	return len(s.Results) > 0
}

// InvalidateResults 偏好变化后丢弃缓存结果
func (s *Session) InvalidateResults() {
	s.Results = nil
	s.Computed = false
	s.Cursor = 0
}

// Reset 完全重置（"something else" 之类的短语）
func (s *Session) Reset() {
	s.Slots = Slots{}
	s.MoodMessage = ""
	s.InvalidateResults()
}

// SetResults 保存计算结果，游标归零
func (s *Session) SetResults(results []*MovieRecord) {
	s.Results = results
	s.Computed = true
	s.Cursor = 0
}

// FirstPage 返回第一页并把游标移到第一页之后
func (s *Session) FirstPage(size int) []*MovieRecord {
	s.Cursor = 0
	return s.NextPage(size)
}

// NextPage 返回 results[cursor:cursor+size]，游标前移；没有更多时返回空且游标不变
func (s *Session) NextPage(size int) []*MovieRecord {
	if size <= 0 || s.Cursor >= len(s.Results) {
		return nil
	}
	end := s.Cursor + size
	if end > len(s.Results) {
		end = len(s.Results)
	}
	page := s.Results[s.Cursor:end]
	s.Cursor = end
	return page
}

// TakeMoodMessage 取出并清空附言
func (s *Session) TakeMoodMessage() string {
	msg := s.MoodMessage
	s.MoodMessage = ""
	return msg
}

// Touch 更新最后活跃时间
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}
