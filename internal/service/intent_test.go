package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/moviechat/internal/model"
)

func TestIntentRouterLocalRules(t *testing.T) {
	catalog := testCatalog(true)
	cls := newScripted(nil)
	router := NewIntentRouter(catalog, cls, newTestExtractor(catalog, cls))

	cases := []struct {
		utterance string
		want      model.Intent
	}{
		{"more", model.IntentMore},
		{"Show more!", model.IntentMore},
		{"next", model.IntentMore},
		{"Hello", model.IntentGreeting},
		{"hi there!", model.IntentGreeting},
		{"Comedy", model.IntentMovieRequest},
		{model.LabelShort, model.IntentMovieRequest},
		{model.LabelAllAudiences, model.IntentMovieRequest},
		{"got any thriller?", model.IntentMovieRequest},
		{"I feel really sad today", model.IntentMoodDescription},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, router.Classify(context.Background(), tc.utterance), tc.utterance)
	}
	assert.Zero(t, cls.Calls(), "本地规则命中时不调用分类器")
}

func TestIntentRouterPaginationWithoutClassifier(t *testing.T) {
	catalog := testCatalog(false)
	router := NewIntentRouter(catalog, nil, nil)

	assert.Equal(t, model.IntentMore, router.Classify(context.Background(), "more"))
	assert.Equal(t, model.IntentMore, router.Classify(context.Background(), "Next."))
}

func TestIntentRouterClassifierFallback(t *testing.T) {
	catalog := testCatalog(false)

	cls := newScripted(map[string]string{intentPrompt: " Movie_Request "})
	router := NewIntentRouter(catalog, cls, newTestExtractor(catalog, cls))
	assert.Equal(t, model.IntentMovieRequest, router.Classify(context.Background(), "what should I watch tonight"))

	cls = newScripted(map[string]string{intentPrompt: "weather_report"})
	router = NewIntentRouter(catalog, cls, newTestExtractor(catalog, cls))
	assert.Equal(t, model.IntentUnrelated, router.Classify(context.Background(), "what's the weather"))

	cls = newScripted(nil)
	cls.err = errors.New("boom")
	router = NewIntentRouter(catalog, cls, newTestExtractor(catalog, cls))
	assert.Equal(t, model.IntentUnrelated, router.Classify(context.Background(), "what's the weather"))

	router = NewIntentRouter(catalog, nil, nil)
	assert.Equal(t, model.IntentUnrelated, router.Classify(context.Background(), "what's the weather"))
}

func TestIsResetPhrase(t *testing.T) {
	assert.True(t, IsResetPhrase("Something else"))
	assert.True(t, IsResetPhrase("  start over! "))
	assert.False(t, IsResetPhrase("something else funny"))
}
