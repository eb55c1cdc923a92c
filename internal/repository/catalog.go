package repository

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/user/moviechat/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCatalogLoad 目录缺少必需列或无法解析
var ErrCatalogLoad = errors.New("catalog load failed")

// 分数展示区间
const (
	displayScoreMin   = 1.0
	displayScoreMax   = 10.0
	displayScoreFixed = 10.0 // 所有分数相同时的固定展示值
)

// Catalog 内存中的只读电影目录，加载后不再修改，可无锁并发读取
type Catalog struct {
	records    []*model.MovieRecord
	byCluster  map[string][]*model.MovieRecord
	vocabulary []string
	vocabSet   map[string]struct{}
	hasAdult   bool
	minScore   float64
	maxScore   float64
}

// Filter 目录筛选条件，零值表示不限
type Filter struct {
	Genre    string
	Length   model.LengthBucket
	Audience *bool
}

// FilterFromSlots 由会话偏好构造筛选条件
func FilterFromSlots(s model.Slots) Filter {
	return Filter{Genre: s.Genre, Length: s.Length, Audience: s.Audience}
}

// NewCatalog 建立索引：类型词表、聚类分组、分数范围
// hasAdultFlag 表示数据源是否带 adult 列，决定观众偏好是否必填
func NewCatalog(records []*model.MovieRecord, hasAdultFlag bool) *Catalog {
	c := &Catalog{
		records:   records,
		byCluster: make(map[string][]*model.MovieRecord),
		vocabSet:  make(map[string]struct{}),
		hasAdult:  hasAdultFlag,
	}

	caser := cases.Title(language.English)
	for i, rec := range records {
		for _, g := range rec.Genres {
			label := caser.String(g)
			if _, ok := c.vocabSet[label]; !ok {
				c.vocabSet[label] = struct{}{}
				c.vocabulary = append(c.vocabulary, label)
			}
		}
		if rec.ClusterID != "" {
			c.byCluster[rec.ClusterID] = append(c.byCluster[rec.ClusterID], rec)
		}
		if i == 0 || rec.QualityScore < c.minScore {
			c.minScore = rec.QualityScore
		}
		if i == 0 || rec.QualityScore > c.maxScore {
			c.maxScore = rec.QualityScore
		}
	}
	sort.Strings(c.vocabulary)
	return c
}

// Len 电影数量
func (c *Catalog) Len() int {
	return len(c.records)
}

// All 全部电影（只读）
func (c *Catalog) All() []*model.MovieRecord {
	return c.records
}

// GenreVocabulary 排序后的类型词表（首字母大写）
func (c *Catalog) GenreVocabulary() []string {
	out := make([]string, len(c.vocabulary))
	copy(out, c.vocabulary)
	return out
}

// HasGenre 词表精确匹配（区分大小写，用于按钮回复）
func (c *Catalog) HasGenre(label string) bool {
	_, ok := c.vocabSet[label]
	return ok
}

// HasAdultFlag 数据源是否提供 adult 列
func (c *Catalog) HasAdultFlag() bool {
	return c.hasAdult
}

// Filter 按类型（子串）、片长区间、是否成人筛选，结果顺序与目录一致
func (c *Catalog) Filter(f Filter) []*model.MovieRecord {
	result := make([]*model.MovieRecord, 0)
	for _, rec := range c.records {
		if f.Genre != "" && !rec.MatchesGenre(f.Genre) {
			continue
		}
		if f.Length != model.LengthUnset && !f.Length.Contains(rec.RuntimeMinutes) {
			continue
		}
		if f.Audience != nil && rec.IsAdult != *f.Audience {
			continue
		}
		result = append(result, rec)
	}
	return result
}

// ClusterMembers 同一聚类下的全部电影
func (c *Catalog) ClusterMembers(clusterID string) []*model.MovieRecord {
	if clusterID == "" {
		return nil
	}
	members := c.byCluster[clusterID]
	out := make([]*model.MovieRecord, len(members))
	copy(out, members)
	return out
}

// ModalCluster 出现次数最多的聚类，并列时取字典序最小的；没有聚类信息返回 false
func ModalCluster(records []*model.MovieRecord) (string, bool) {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.ClusterID != "" {
			counts[rec.ClusterID]++
		}
	}
	best, bestCount := "", 0
	for id, n := range counts {
		if n > bestCount || (n == bestCount && id < best) {
			best, bestCount = id, n
		}
	}
	return best, bestCount > 0
}

// ScoreRange 目录内 qualityScore 的最小/最大值
func (c *Catalog) ScoreRange() (float64, float64) {
	return c.minScore, c.maxScore
}

// DisplayScore 把原始分数按目录 min-max 归一化到 1-10，保留一位小数
func (c *Catalog) DisplayScore(raw float64) float64 {
	if c.maxScore-c.minScore <= 0 {
		return displayScoreFixed
	}
	ratio := (raw - c.minScore) / (c.maxScore - c.minScore)
	ratio = math.Max(0, math.Min(1, ratio))
	score := displayScoreMin + ratio*(displayScoreMax-displayScoreMin)
	return math.Round(score*10) / 10
}

// normalizeGenre 类型统一小写
func normalizeGenre(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}
