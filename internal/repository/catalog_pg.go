package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/model"
	"gorm.io/gorm"
)

// catalogRow 目录表的一行，genres 为 text[]
type catalogRow struct {
	Title       string         `gorm:"column:title"`
	Genres      pq.StringArray `gorm:"column:genres;type:text[]"`
	Runtime     *float64       `gorm:"column:runtime"`
	Overview    *string        `gorm:"column:overview"`
	ReleaseYear *int           `gorm:"column:release_year"`
	FinalScore  *float64       `gorm:"column:final_score"`
	Adult       *bool          `gorm:"column:adult"`
	ClusterID   *string        `gorm:"column:cluster_id"`
}

// LoadCatalogFromPostgres 从数据库表加载目录，列要求与 CSV 相同
func LoadCatalogFromPostgres(db *gorm.DB, table string) (*Catalog, error) {
	empty := NewCatalog(nil, false)
	migrator := db.Migrator()

	if !migrator.HasTable(table) {
		return empty, fmt.Errorf("%w: 表 %s 不存在", ErrCatalogLoad, table)
	}

	var missing []string
	for _, col := range requiredColumns {
		if !migrator.HasColumn(table, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return empty, fmt.Errorf("%w: 缺少必需列 %s", ErrCatalogLoad, strings.Join(missing, ", "))
	}

	hasAdult := migrator.HasColumn(table, "adult")
	hasCluster := migrator.HasColumn(table, "cluster_id")

	columns := []string{"title", "genres", "runtime", "overview", "release_year", "final_score"}
	if hasAdult {
		columns = append(columns, "adult")
	}
	if hasCluster {
		columns = append(columns, "cluster_id")
	}

	var rows []catalogRow
	if err := db.Table(table).Select(columns).Find(&rows).Error; err != nil {
		return empty, fmt.Errorf("%w: 查询 %s 失败: %v", ErrCatalogLoad, table, err)
	}

	records := make([]*model.MovieRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rec, ok := row.toRecord(hasAdult)
		if !ok {
			dropped++
			continue
		}
		if err := validate.Struct(rec); err != nil {
			dropped++
			log.Debug().Str("title", row.Title).Err(err).Msg("[Catalog] 跳过无效记录")
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return empty, fmt.Errorf("%w: 没有有效的电影记录", ErrCatalogLoad)
	}

	log.Info().Str("table", table).Int("movies", len(records)).Int("dropped", dropped).Msg("[Catalog] 目录加载完成")
	return NewCatalog(records, hasAdult), nil
}

// toRecord 必需字段为 NULL 时丢弃
func (r catalogRow) toRecord(hasAdult bool) (*model.MovieRecord, bool) {
	if r.Runtime == nil || r.FinalScore == nil {
		return nil, false
	}
	if hasAdult && r.Adult == nil {
		return nil, false
	}

	rec := &model.MovieRecord{
		Title:          strings.TrimSpace(r.Title),
		RuntimeMinutes: *r.Runtime,
		QualityScore:   *r.FinalScore,
	}
	for _, g := range r.Genres {
		if trimmed := strings.TrimSpace(g); trimmed != "" {
			rec.DisplayGenres = append(rec.DisplayGenres, trimmed)
			rec.Genres = append(rec.Genres, normalizeGenre(trimmed))
		}
	}
	if r.Overview != nil {
		rec.Overview = *r.Overview
	}
	if r.ReleaseYear != nil {
		rec.ReleaseYear = *r.ReleaseYear
	}
	if r.Adult != nil {
		rec.IsAdult = *r.Adult
	}
	if r.ClusterID != nil {
		rec.ClusterID = normalizeClusterID(strings.TrimSpace(*r.ClusterID))
	}
	return rec, true
}
