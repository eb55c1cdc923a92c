package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/repository"
	"golang.org/x/sync/errgroup"
)

// GenreSource 类型是怎么得到的
type GenreSource string

const (
	GenreFromOption     GenreSource = "option"     // 按钮回复
	GenreFromMention    GenreSource = "mention"    // 消息里直接提到了词表中的类型
	GenreFromClassifier GenreSource = "classifier" // 外部分类器
	GenreFromMood       GenreSource = "mood"       // 识别到情绪
	GenreFromDefault    GenreSource = "default"    // 默认列表随机
)

// Explicit 用户明确表达的类型可以覆盖已有类型
func (s GenreSource) Explicit() bool {
	return s != "" && s != GenreFromDefault
}

// SlotUpdate 一次抽取得到的部分偏好，零值字段表示没有结果
type SlotUpdate struct {
	Genre       string
	GenreSource GenreSource

	Length         model.LengthBucket
	LengthExplicit bool // 按钮回复

	Audience         *bool
	AudienceExplicit bool // 按钮回复

	Mood        Mood
	MoodMessage string
}

// IsEmpty 没有抽取到任何偏好
func (u SlotUpdate) IsEmpty() bool {
	return u.Genre == "" && u.Length == model.LengthUnset && u.Audience == nil
}

// SlotExtractor 把自由文本转换成偏好：精确选项 -> 外部分类器 -> 情绪兜底
// 不会返回错误，分类器失败一律当作 Unknown
type SlotExtractor struct {
	catalog    *repository.Catalog
	classifier Classifier
	moods      *MoodPicker
	mentions   []genreMention
}

type genreMention struct {
	label   string
	pattern *regexp.Regexp
}

// NewSlotExtractor 创建抽取器
func NewSlotExtractor(catalog *repository.Catalog, classifier Classifier, moods *MoodPicker) *SlotExtractor {
	if classifier == nil {
		classifier = NopClassifier{}
	}
	e := &SlotExtractor{catalog: catalog, classifier: classifier, moods: moods}

	// 长的类型名优先，"Science Fiction" 先于 "Fiction"
	vocab := catalog.GenreVocabulary()
	sort.SliceStable(vocab, func(i, j int) bool { return len(vocab[i]) > len(vocab[j]) })
	for _, label := range vocab {
		e.mentions = append(e.mentions, genreMention{
			label:   label,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + `\b`),
		})
	}
	return e
}

// Extract 抽取偏好；known 中已填写的项只有在用户明确重述时才会再给出结果
func (e *SlotExtractor) Extract(ctx context.Context, utterance string, known model.Slots) SlotUpdate {
	var upd SlotUpdate
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return upd
	}

	needGenre := known.Genre == ""
	needLength := known.Length == model.LengthUnset
	needAudience := e.catalog.HasAdultFlag() && known.Audience == nil

	// 1. 精确选项（按钮回复），命中后不再做其他推断
	if e.matchOption(utterance, &upd) {
		return upd
	}

	// 1b. 消息里直接提到了某个类型
	if label, ok := e.mentionedGenre(utterance); ok {
		upd.Genre, upd.GenreSource = label, GenreFromMention
		needGenre = false
	}

	// 2. 外部分类器，各类别互不依赖，并发调用
	e.classify(ctx, utterance, needGenre, needLength, needAudience, &upd)

	// 3. 情绪兜底：未填写时一定给出类型；已填写时只有明确提到情绪才覆盖
	if upd.Genre == "" {
		if needGenre || DetectMood(utterance) != MoodNone {
			genre, mood := e.moods.Pick(utterance)
			upd.Genre = genre
			upd.Mood = mood
			if mood != MoodNone {
				upd.GenreSource = GenreFromMood
				upd.MoodMessage = MoodMessage(mood, genre)
			} else {
				upd.GenreSource = GenreFromDefault
			}
		}
	}

	return upd
}

// matchOption 与按钮文案做区分大小写的精确比较
func (e *SlotExtractor) matchOption(utterance string, upd *SlotUpdate) bool {
	if e.catalog.HasGenre(utterance) {
		upd.Genre, upd.GenreSource = utterance, GenreFromOption
		return true
	}
	if bucket, ok := model.LengthBucketFromLabel(utterance); ok {
		upd.Length, upd.LengthExplicit = bucket, true
		return true
	}
	if e.catalog.HasAdultFlag() {
		if adult, ok := model.AudienceFromLabel(utterance); ok {
			upd.Audience, upd.AudienceExplicit = model.BoolPtr(adult), true
			return true
		}
	}
	return false
}

func (e *SlotExtractor) mentionedGenre(utterance string) (string, bool) {
	for _, m := range e.mentions {
		if m.pattern.MatchString(utterance) {
			return m.label, true
		}
	}
	return "", false
}

func (e *SlotExtractor) classify(ctx context.Context, utterance string, needGenre, needLength, needAudience bool, upd *SlotUpdate) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)

	// 各项互不影响：某一项失败不取消其他项
	if needGenre {
		g.Go(func() error {
			label, err := e.ask(ctx, utterance, CategoryGenre, e.catalog.GenreVocabulary())
			if label != "" {
				mu.Lock()
				upd.Genre, upd.GenreSource = label, GenreFromClassifier
				mu.Unlock()
			}
			return err
		})
	}
	if needLength {
		g.Go(func() error {
			words := []string{model.LengthShort.Word(), model.LengthMedium.Word(), model.LengthLong.Word()}
			word, err := e.ask(ctx, utterance, CategoryLength, words)
			if word != "" {
				bucket, _ := model.LengthBucketFromWord(word)
				mu.Lock()
				upd.Length = bucket
				mu.Unlock()
			}
			return err
		})
	}
	if needAudience {
		g.Go(func() error {
			label, err := e.ask(ctx, utterance, CategoryAudience, model.AudienceLabels())
			if label != "" {
				adult, _ := model.AudienceFromLabel(label)
				mu.Lock()
				upd.Audience = model.BoolPtr(adult)
				mu.Unlock()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		log.Debug().Err(err).Msg("[SlotExtractor] 分类器不可用，缺失项按 Unknown 处理")
	}
}

// ask 调用分类器；答案不在枚举里时返回空串，分类器失败时返回错误
func (e *SlotExtractor) ask(ctx context.Context, utterance string, category SlotCategory, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	answer, err := e.classifier.Classify(ctx, buildSlotPrompt(utterance, category, options))
	if err != nil {
		return "", fmt.Errorf("classify %s: %w", category, err)
	}
	label, _ := pickOption(answer, options)
	return label, nil
}
