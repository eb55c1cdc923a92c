package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moviechat/internal/model"
)

func TestExtractOptionReply(t *testing.T) {
	cls := newScripted(nil)
	e := newTestExtractor(testCatalog(true), cls)
	ctx := context.Background()

	upd := e.Extract(ctx, "Comedy", model.Slots{})
	assert.Equal(t, "Comedy", upd.Genre)
	assert.Equal(t, GenreFromOption, upd.GenreSource)

	upd = e.Extract(ctx, model.LabelShort, model.Slots{Genre: "Comedy"})
	assert.Equal(t, model.LengthShort, upd.Length)
	assert.True(t, upd.LengthExplicit)
	assert.Empty(t, upd.Genre)

	upd = e.Extract(ctx, model.LabelAdultsOnly, model.Slots{Genre: "Comedy", Length: model.LengthShort})
	require.NotNil(t, upd.Audience)
	assert.True(t, *upd.Audience)

	assert.Zero(t, cls.Calls(), "按钮回复不调用分类器")
}

func TestExtractAudienceOptionIgnoredWithoutAdultColumn(t *testing.T) {
	e := newTestExtractor(testCatalog(false), nil)
	upd := e.Extract(context.Background(), model.LabelAdultsOnly, model.Slots{Genre: "Comedy", Length: model.LengthShort})
	assert.Nil(t, upd.Audience)
}

func TestExtractFromClassifier(t *testing.T) {
	cls := newScripted(map[string]string{
		genrePrompt:    "Comedy",
		lengthPrompt:   "Short",
		audiencePrompt: model.LabelAllAudiences,
	})
	e := newTestExtractor(testCatalog(true), cls)

	upd := e.Extract(context.Background(), "something funny and quick for everyone", model.Slots{})
	assert.Equal(t, "Comedy", upd.Genre)
	assert.Equal(t, GenreFromClassifier, upd.GenreSource)
	assert.Equal(t, model.LengthShort, upd.Length)
	require.NotNil(t, upd.Audience)
	assert.False(t, *upd.Audience)
	assert.Equal(t, 3, cls.Calls())
}

func TestExtractPartialClassifierFailure(t *testing.T) {
	cls := newScripted(map[string]string{lengthPrompt: "Short"})
	cls.failures = map[string]error{
		genrePrompt:    ErrClassifierTimeout,
		audiencePrompt: ErrClassifierTimeout,
	}
	e := newTestExtractor(testCatalog(true), cls)

	// 一项失败不影响其他项
	upd := e.Extract(context.Background(), "a quick one", model.Slots{})
	assert.Equal(t, GenreFromDefault, upd.GenreSource, "类型由兜底给出")
	assert.Equal(t, model.LengthShort, upd.Length)
	assert.Nil(t, upd.Audience)
	assert.Equal(t, 3, cls.Calls())
}

func TestExtractOnlyAsksForMissingSlots(t *testing.T) {
	cls := newScripted(map[string]string{lengthPrompt: "Long"})
	e := newTestExtractor(testCatalog(false), cls)

	upd := e.Extract(context.Background(), "make it a long one", model.Slots{Genre: "Drama"})
	assert.Empty(t, upd.Genre)
	assert.Equal(t, model.LengthLong, upd.Length)
	assert.Equal(t, 1, cls.Calls())
}

func TestExtractRejectsLabelsOutsideVocabulary(t *testing.T) {
	cls := newScripted(map[string]string{
		genrePrompt:  "comedy", // 大小写不符
		lengthPrompt: "Very long",
	})
	e := newTestExtractor(testCatalog(false), cls)

	upd := e.Extract(context.Background(), "surprise me", model.Slots{})
	assert.Equal(t, GenreFromDefault, upd.GenreSource)
	assert.Contains(t, []string{"Comedy", "Drama", "Action"}, upd.Genre)
	assert.Equal(t, model.LengthUnset, upd.Length)
}

func TestExtractMoodFallback(t *testing.T) {
	cls := newScripted(nil)
	cls.err = errors.New("network down")
	e := newTestExtractor(testCatalog(false), cls)

	upd := e.Extract(context.Background(), "I feel really sad today", model.Slots{})
	assert.Equal(t, MoodSad, upd.Mood)
	assert.Equal(t, GenreFromMood, upd.GenreSource)
	assert.Contains(t, []string{"Comedy", "Animation", "Family"}, upd.Genre)
	assert.NotEmpty(t, upd.MoodMessage)
}

func TestExtractMentionedGenre(t *testing.T) {
	e := newTestExtractor(testCatalog(false), nil)

	upd := e.Extract(context.Background(), "any good science fiction tonight?", model.Slots{})
	assert.Equal(t, "Science Fiction", upd.Genre)
	assert.Equal(t, GenreFromMention, upd.GenreSource)

	// 已有类型时，直接提到的类型仍然算明确重述
	upd = e.Extract(context.Background(), "actually I want action", model.Slots{Genre: "Comedy"})
	assert.Equal(t, "Action", upd.Genre)
	assert.True(t, upd.GenreSource.Explicit())
}

func TestExtractKeepsKnownGenreWithoutRestatement(t *testing.T) {
	e := newTestExtractor(testCatalog(false), nil)
	upd := e.Extract(context.Background(), "whatever works", model.Slots{Genre: "Drama", Length: model.LengthLong})
	assert.True(t, upd.IsEmpty())
}

func TestApplySlotUpdate(t *testing.T) {
	slots := model.Slots{Genre: "Comedy", Length: model.LengthShort, Audience: model.BoolPtr(false)}

	// 默认兜底的类型不覆盖已有类型
	assert.False(t, applySlotUpdate(&slots, SlotUpdate{Genre: "Drama", GenreSource: GenreFromDefault}))
	assert.Equal(t, "Comedy", slots.Genre)

	assert.True(t, applySlotUpdate(&slots, SlotUpdate{Genre: "Drama", GenreSource: GenreFromOption}))
	assert.Equal(t, "Drama", slots.Genre)
	assert.Equal(t, model.LengthShort, slots.Length, "其他偏好保持不变")

	assert.False(t, applySlotUpdate(&slots, SlotUpdate{Length: model.LengthLong}), "分类器推断不覆盖已有片长")
	assert.True(t, applySlotUpdate(&slots, SlotUpdate{Length: model.LengthLong, LengthExplicit: true}))

	assert.False(t, applySlotUpdate(&slots, SlotUpdate{Audience: model.BoolPtr(false), AudienceExplicit: true}))
	assert.True(t, applySlotUpdate(&slots, SlotUpdate{Audience: model.BoolPtr(true), AudienceExplicit: true}))
	assert.True(t, *slots.Audience)
}
