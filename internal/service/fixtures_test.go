package service

import (
	"context"
	"strings"
	"sync"

	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/repository"
	"github.com/user/moviechat/internal/utils"
)

func movie(title string, runtime, score float64, adult bool, cluster string, genres ...string) *model.MovieRecord {
	lower := make([]string, len(genres))
	for i, g := range genres {
		lower[i] = strings.ToLower(g)
	}
	return &model.MovieRecord{
		Title:          title,
		ReleaseYear:    2010,
		Genres:         lower,
		DisplayGenres:  genres,
		RuntimeMinutes: runtime,
		QualityScore:   score,
		IsAdult:        adult,
		ClusterID:      cluster,
		Overview:       title + " overview",
	}
}

// testCatalog 六部短喜剧（可翻两页），其余用于放宽与无结果场景
func testCatalog(hasAdult bool) *repository.Catalog {
	return repository.NewCatalog([]*model.MovieRecord{
		movie("Laugh Riot", 85, 8, false, "1", "Comedy"),
		movie("Tiny Jokes", 90, 6, false, "1", "Comedy"),
		movie("Quick Giggles", 70, 5, false, "1", "Comedy"),
		movie("Punchline", 82, 7, false, "1", "Comedy"),
		movie("Sitcom Movie", 89, 4.5, false, "1", "Comedy"),
		movie("Pratfall", 60, 6.2, false, "2", "Comedy"),
		movie("Big Comedy Night", 95, 7, false, "2", "Comedy"),
		movie("Long Laughs", 130, 5, false, "2", "Comedy", "Drama"),
		movie("Dark Comedy", 88, 4, true, "1", "Comedy"),
		movie("Action Blast", 100, 9, false, "3", "Action"),
		movie("Action Short", 80, 3, false, "3", "Action"),
		movie("Heavy Drama", 140, 7.5, false, "2", "Drama"),
		movie("Toon Time", 75, 6.5, false, "1", "Animation", "Family"),
		movie("Adult Thriller", 110, 5.5, true, "3", "Thriller"),
		movie("Science Fiction Saga", 150, 8.5, false, "4", "Science Fiction"),
	}, hasAdult)
}

// scriptedClassifier 按提示词内容返回预设答案，并发安全
type scriptedClassifier struct {
	mu      sync.Mutex
	answers  map[string]string // 提示词片段 -> 答案
	failures map[string]error  // 提示词片段 -> 错误
	calls    int
	err      error
}

func newScripted(answers map[string]string) *scriptedClassifier {
	return &scriptedClassifier{answers: answers}
}

func (s *scriptedClassifier) Classify(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	for fragment, err := range s.failures {
		if strings.Contains(prompt, fragment) {
			return "", err
		}
	}
	for fragment, answer := range s.answers {
		if strings.Contains(prompt, fragment) {
			return answer, nil
		}
	}
	return UnknownLabel, nil
}

func (s *scriptedClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// 提示词片段
const (
	intentPrompt   = "Classify the user intent"
	genrePrompt    = "Classify the user's genre"
	lengthPrompt   = "Classify the user's length"
	audiencePrompt = "Classify the user's audience"
)

func newTestExtractor(catalog *repository.Catalog, classifier Classifier) *SlotExtractor {
	return NewSlotExtractor(catalog, classifier, NewMoodPicker(catalog.GenreVocabulary(), utils.NewRandom(7)))
}
