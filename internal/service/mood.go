package service

import (
	"fmt"
	"strings"

	"github.com/user/moviechat/internal/utils"
)

// Mood 从消息中识别出的情绪
type Mood string

const (
	MoodNone     Mood = ""
	MoodSad      Mood = "sad"
	MoodHappy    Mood = "happy"
	MoodAngry    Mood = "angry"
	MoodBored    Mood = "bored"
	MoodTired    Mood = "tired"
	MoodRomantic Mood = "romantic"
)

// 按顺序检查，"unhappy" 必须先于 "happy" 命中
var moodKeywords = []struct {
	mood     Mood
	keywords []string
}{
	{MoodSad, []string{"sad", "unhappy", "depress", "lonely", "heartbroken", "crying", "feeling down", "feel down", "upset", "miserable"}},
	{MoodAngry, []string{"angry", "furious", "annoyed", "frustrated", "pissed", "mad at", "irritated"}},
	{MoodTired, []string{"tired", "exhausted", "sleepy", "worn out", "drained", "long day"}},
	{MoodBored, []string{"bored", "boring", "nothing to do", "restless"}},
	{MoodRomantic, []string{"romantic", "date night", "in love", "valentine", "cuddle"}},
	{MoodHappy, []string{"happy", "excited", "cheerful", "good mood", "great mood", "joyful", "celebrat"}},
}

// 每种情绪对应的候选类型
var moodGenres = map[Mood][]string{
	MoodSad:      {"Comedy", "Animation", "Family", "Music"},
	MoodHappy:    {"Adventure", "Comedy", "Musical", "Romance"},
	MoodAngry:    {"Action", "Thriller", "Crime"},
	MoodBored:    {"Adventure", "Science Fiction", "Mystery", "Fantasy"},
	MoodTired:    {"Animation", "Comedy", "Family"},
	MoodRomantic: {"Romance", "Drama", "Comedy"},
}

// 没有识别出情绪时的候选类型
var defaultGenres = []string{"Comedy", "Drama", "Action", "Adventure"}

var moodIntros = map[Mood]string{
	MoodSad:      "Sorry you're feeling down. Something light might help",
	MoodHappy:    "Love the good vibes! Let's keep them going",
	MoodAngry:    "Sounds like you need to blow off some steam",
	MoodBored:    "Let's shake off the boredom",
	MoodTired:    "Long day? Let's keep it easy",
	MoodRomantic: "Feeling romantic? Great choice for tonight",
}

// DetectMood 关键词子串匹配，未命中返回 MoodNone
func DetectMood(text string) Mood {
	lower := strings.ToLower(text)
	for _, entry := range moodKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.mood
			}
		}
	}
	return MoodNone
}

// MoodGenres 情绪对应的候选类型（副本）
func MoodGenres(m Mood) []string {
	src, ok := moodGenres[m]
	if !ok {
		src = defaultGenres
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// MoodMessage 给用户的一次性说明
func MoodMessage(m Mood, genre string) string {
	intro, ok := moodIntros[m]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s, so I picked %s for you.", intro, genre)
}

// MoodPicker 情绪兜底：情绪 -> 候选类型 -> 随机选一个
type MoodPicker struct {
	vocabulary []string
	rnd        utils.Random
}

// NewMoodPicker vocabulary 为目录的类型词表，候选会先与之求交
func NewMoodPicker(vocabulary []string, rnd utils.Random) *MoodPicker {
	return &MoodPicker{vocabulary: vocabulary, rnd: rnd}
}

// Pick 总能返回一个类型（词表为空时直接使用候选列表）
func (p *MoodPicker) Pick(text string) (string, Mood) {
	mood := DetectMood(text)

	candidates := p.available(MoodGenres(mood))
	if len(candidates) == 0 && mood != MoodNone {
		candidates = p.available(defaultGenres)
	}
	if len(candidates) == 0 {
		candidates = p.vocabulary
	}
	if len(candidates) == 0 {
		candidates = MoodGenres(mood)
	}

	return candidates[p.rnd.IntN(len(candidates))], mood
}

// available 只保留目录里真实存在的类型，使用词表中的写法
func (p *MoodPicker) available(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		for _, v := range p.vocabulary {
			if strings.EqualFold(g, v) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
