package model

import (
	"strings"
)

// MovieRecord 目录中的电影（加载后只读，可跨请求共享）
type MovieRecord struct {
	Title          string   `json:"title" validate:"required"`
	ReleaseYear    int      `json:"release_year" validate:"gte=0"`
	Genres         []string `json:"genres" validate:"min=1,dive,required"` // 小写归一化后的类型
	DisplayGenres  []string `json:"display_genres"`                        // 原始写法，用于展示
	RuntimeMinutes float64  `json:"runtime" validate:"gt=0"`
	IsAdult        bool     `json:"adult"`
	QualityScore   float64  `json:"final_score"`
	Overview       string   `json:"overview"`
	ClusterID      string   `json:"cluster_id"`
}

// MatchesGenre 类型子串匹配（忽略大小写），"action" 同样能匹配 "action-adventure"
func (m *MovieRecord) MatchesGenre(genre string) bool {
	needle := strings.ToLower(strings.TrimSpace(genre))
	if needle == "" {
		return true
	}
	for _, g := range m.Genres {
		if strings.Contains(g, needle) {
			return true
		}
	}
	return false
}

// GenreText 展示用的类型字符串
func (m *MovieRecord) GenreText() string {
	if len(m.DisplayGenres) > 0 {
		return strings.Join(m.DisplayGenres, ", ")
	}
	return strings.Join(m.Genres, ", ")
}

// LengthBucket 片长区间
type LengthBucket int

const (
	LengthUnset LengthBucket = iota
	LengthShort
	LengthMedium
	LengthLong
)

// 按钮上展示的片长选项，与前端约定一致
const (
	LabelShort  = "Short (up to 90 min)"
	LabelMedium = "Medium (91-120 min)"
	LabelLong   = "Long (over 120 min)"
)

var lengthLabels = []string{LabelShort, LabelMedium, LabelLong}

// LengthLabels 片长选项（按展示顺序）
func LengthLabels() []string {
	out := make([]string, len(lengthLabels))
	copy(out, lengthLabels)
	return out
}

// Label 返回区间对应的按钮文案
func (b LengthBucket) Label() string {
	switch b {
	case LengthShort:
		return LabelShort
	case LengthMedium:
		return LabelMedium
	case LengthLong:
		return LabelLong
	default:
		return ""
	}
}

// Word 分类器使用的单词形式
func (b LengthBucket) Word() string {
	switch b {
	case LengthShort:
		return "Short"
	case LengthMedium:
		return "Medium"
	case LengthLong:
		return "Long"
	default:
		return ""
	}
}

// Contains 判断片长是否落在区间内
// Short: <=90, Medium: 90-120, Long: >120（整数片长与 [0,90] [91,120] [121,∞) 等价）
func (b LengthBucket) Contains(runtime float64) bool {
	switch b {
	case LengthShort:
		return runtime >= 0 && runtime <= 90
	case LengthMedium:
		return runtime > 90 && runtime <= 120
	case LengthLong:
		return runtime > 120
	default:
		return true
	}
}

// LengthBucketFromLabel 按钮文案 -> 区间（区分大小写）
func LengthBucketFromLabel(label string) (LengthBucket, bool) {
	switch label {
	case LabelShort:
		return LengthShort, true
	case LabelMedium:
		return LengthMedium, true
	case LabelLong:
		return LengthLong, true
	}
	return LengthUnset, false
}

// LengthBucketFromWord 分类器输出 -> 区间
func LengthBucketFromWord(word string) (LengthBucket, bool) {
	switch word {
	case "Short":
		return LengthShort, true
	case "Medium":
		return LengthMedium, true
	case "Long":
		return LengthLong, true
	}
	return LengthUnset, false
}

// 观众选项
const (
	LabelAllAudiences = "All Audiences"
	LabelAdultsOnly   = "Adults Only"
)

// AudienceLabels 观众选项（按展示顺序）
func AudienceLabels() []string {
	return []string{LabelAllAudiences, LabelAdultsOnly}
}

// AudienceFromLabel 观众选项 -> 是否成人内容
func AudienceFromLabel(label string) (bool, bool) {
	switch label {
	case LabelAllAudiences:
		return false, true
	case LabelAdultsOnly:
		return true, true
	}
	return false, false
}

// AudienceLabel 是否成人内容 -> 观众选项
func AudienceLabel(adult bool) string {
	if adult {
		return LabelAdultsOnly
	}
	return LabelAllAudiences
}
