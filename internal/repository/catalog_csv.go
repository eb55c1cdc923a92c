package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/model"
)

// 数据集必需列
var requiredColumns = []string{"title", "genres", "runtime", "overview", "release_year", "final_score"}

var validate = validator.New()

// LoadCatalogCSV 从 CSV 文件加载目录
// 出错时仍返回一个空目录，调用方决定是否拒绝启动
func LoadCatalogCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewCatalog(nil, false), fmt.Errorf("%w: 打开 %s 失败: %v", ErrCatalogLoad, path, err)
	}
	defer f.Close()

	return ParseCatalogCSV(f)
}

// ParseCatalogCSV 按表头解析 CSV，缺少必需列直接失败，缺值或非法的行被丢弃
func ParseCatalogCSV(r io.Reader) (*Catalog, error) {
	empty := NewCatalog(nil, false)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return empty, fmt.Errorf("%w: 读取表头失败: %v", ErrCatalogLoad, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return empty, fmt.Errorf("%w: 缺少必需列 %s", ErrCatalogLoad, strings.Join(missing, ", "))
	}

	_, hasAdult := index["adult"]

	var records []*model.MovieRecord
	line, dropped := 1, 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return empty, fmt.Errorf("%w: 第 %d 行: %v", ErrCatalogLoad, line, err)
		}

		rec, err := parseRow(row, index, hasAdult)
		if err != nil {
			dropped++
			log.Debug().Int("line", line).Err(err).Msg("[Catalog] 跳过无效行")
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return empty, fmt.Errorf("%w: 没有有效的电影记录", ErrCatalogLoad)
	}

	log.Info().Int("movies", len(records)).Int("dropped", dropped).Bool("adult_flag", hasAdult).Msg("[Catalog] 目录加载完成")
	return NewCatalog(records, hasAdult), nil
}

// parseRow 解析单行，任何必需字段缺失或非法都返回错误
func parseRow(row []string, index map[string]int, hasAdult bool) (*model.MovieRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := &model.MovieRecord{
		Title:    get("title"),
		Overview: get("overview"),
	}

	display := parseGenres(get("genres"))
	for _, g := range display {
		rec.Genres = append(rec.Genres, normalizeGenre(g))
	}
	rec.DisplayGenres = display

	runtime, err := strconv.ParseFloat(get("runtime"), 64)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	rec.RuntimeMinutes = runtime

	score, err := strconv.ParseFloat(get("final_score"), 64)
	if err != nil {
		return nil, fmt.Errorf("final_score: %w", err)
	}
	rec.QualityScore = score

	if raw := get("release_year"); raw != "" {
		year, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("release_year: %w", err)
		}
		rec.ReleaseYear = int(year)
	}

	if hasAdult {
		adult, err := parseBool(get("adult"))
		if err != nil {
			return nil, fmt.Errorf("adult: %w", err)
		}
		rec.IsAdult = adult
	}

	rec.ClusterID = normalizeClusterID(get("cluster_id"))

	if err := validate.Struct(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// parseGenres 兼容 "['Comedy', 'Drama']"、"Comedy, Drama"、"Comedy|Drama"
func parseGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	raw = strings.NewReplacer("'", "", "\"", "").Replace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' })
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseBool 兼容 pandas 导出的 True/False 以及 0/1
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "1.0", "yes", "t":
		return true, nil
	case "false", "0", "0.0", "no", "f":
		return false, nil
	}
	return false, fmt.Errorf("无法解析布尔值 %q", raw)
}

// normalizeClusterID "3.0" 与 "3" 视为同一聚类
func normalizeClusterID(raw string) string {
	if raw == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return raw
}
