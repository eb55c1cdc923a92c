package service

import (
	"math"
	"sort"

	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/repository"
	"github.com/user/moviechat/internal/utils"
)

// 抽样方式
const (
	SampleWeighted = "weighted" // 按 qualityScore 加权、不放回
	SampleTop      = "top"      // 按 qualityScore 取前 K
)

// 权重为 0 或负数的电影仍有极小的概率被抽中
const minSampleWeight = 1e-6

// RecommendConfig 推荐参数
type RecommendConfig struct {
	SampleCap     int
	SampleMode    string
	ExpandCluster bool // 总是用命中结果中出现最多的聚类替换结果集
}

// Recommendation 一次推荐的结果
type Recommendation struct {
	Results   []*model.MovieRecord
	Broadened bool // 精确条件无结果，放宽后得到
}

// Recommender 推荐引擎：筛选 -> （必要时）按聚类放宽 -> 抽样
type Recommender struct {
	catalog *repository.Catalog
	rnd     utils.Random
	cfg     RecommendConfig
}

// NewRecommender 创建推荐引擎
func NewRecommender(catalog *repository.Catalog, rnd utils.Random, cfg RecommendConfig) *Recommender {
	if cfg.SampleCap <= 0 {
		cfg.SampleCap = 40
	}
	if cfg.SampleMode == "" {
		cfg.SampleMode = SampleWeighted
	}
	return &Recommender{catalog: catalog, rnd: rnd, cfg: cfg}
}

// Recommend 为完整的偏好生成有序结果；没有结果时返回空列表（不是错误）
func (r *Recommender) Recommend(slots model.Slots) Recommendation {
	matches := r.catalog.Filter(repository.FilterFromSlots(slots))
	broadened := false

	switch {
	case len(matches) > 0 && r.cfg.ExpandCluster:
		if members := r.clusterPool(matches, slots.Audience); len(members) > 0 {
			matches = members
		}
	case len(matches) == 0:
		// 去掉观众条件再找出现最多的聚类
		loose := r.catalog.Filter(repository.Filter{Genre: slots.Genre, Length: slots.Length})
		matches = r.clusterPool(loose, slots.Audience)
		broadened = len(matches) > 0
	}

	if len(matches) == 0 {
		return Recommendation{}
	}

	var results []*model.MovieRecord
	if r.cfg.SampleMode == SampleTop {
		results = TopByScore(matches, r.cfg.SampleCap)
	} else {
		results = WeightedSample(matches, r.cfg.SampleCap, r.rnd)
	}
	return Recommendation{Results: results, Broadened: broadened}
}

// clusterPool 出现最多的聚类的成员，观众条件仍然生效
func (r *Recommender) clusterPool(records []*model.MovieRecord, audience *bool) []*model.MovieRecord {
	clusterID, ok := repository.ModalCluster(records)
	if !ok {
		return nil
	}
	members := r.catalog.ClusterMembers(clusterID)
	if audience == nil {
		return members
	}
	out := members[:0]
	for _, m := range members {
		if m.IsAdult == *audience {
			out = append(out, m)
		}
	}
	return out
}

// WeightedSample 按 qualityScore 加权不放回抽取最多 k 个（Efraimidis-Spirakis）
// 分数越高越可能排在前面；同一个随机源给出同样的结果
func WeightedSample(records []*model.MovieRecord, k int, rnd utils.Random) []*model.MovieRecord {
	if k <= 0 || len(records) == 0 {
		return nil
	}

	type keyed struct {
		rec *model.MovieRecord
		key float64
	}
	items := make([]keyed, len(records))
	for i, rec := range records {
		w := math.Max(rec.QualityScore, minSampleWeight)
		u := 1 - rnd.Float64() // (0,1]
		items[i] = keyed{rec: rec, key: math.Log(u) / w}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].key > items[j].key })

	if k > len(items) {
		k = len(items)
	}
	out := make([]*model.MovieRecord, k)
	for i := 0; i < k; i++ {
		out[i] = items[i].rec
	}
	return out
}

// TopByScore 按 qualityScore 降序取前 k 个，同分保持目录顺序
func TopByScore(records []*model.MovieRecord, k int) []*model.MovieRecord {
	if k <= 0 || len(records) == 0 {
		return nil
	}
	sorted := make([]*model.MovieRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].QualityScore > sorted[j].QualityScore })
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// Cards 把一页电影转换成展示卡片
func (r *Recommender) Cards(page []*model.MovieRecord) []model.Card {
	cards := make([]model.Card, 0, len(page))
	for _, m := range page {
		cards = append(cards, model.Card{
			Title:    m.Title,
			Year:     m.ReleaseYear,
			Score:    r.catalog.DisplayScore(m.QualityScore),
			Genre:    m.GenreText(),
			Duration: int(math.Round(m.RuntimeMinutes)),
			Overview: m.Overview,
		})
	}
	return cards
}
