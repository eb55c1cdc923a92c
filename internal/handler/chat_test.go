package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moviechat/internal/config"
	"github.com/user/moviechat/internal/middleware"
	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/repository"
	"github.com/user/moviechat/internal/service"
	"github.com/user/moviechat/internal/utils"
)

func testEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := repository.NewCatalog([]*model.MovieRecord{
		{Title: "Laugh Riot", Genres: []string{"comedy"}, DisplayGenres: []string{"Comedy"}, RuntimeMinutes: 85, QualityScore: 8, ClusterID: "1"},
		{Title: "Punchline", Genres: []string{"comedy"}, DisplayGenres: []string{"Comedy"}, RuntimeMinutes: 80, QualityScore: 6, ClusterID: "1"},
		{Title: "Heavy Drama", Genres: []string{"drama"}, DisplayGenres: []string{"Drama"}, RuntimeMinutes: 140, QualityScore: 7, ClusterID: "2"},
	}, false)
	chat := service.NewChatService(catalog, repository.NewSessionStore(0), nil, utils.NewRandom(1), service.ChatConfig{PageSize: 5})
	cfg := &config.Config{AppSecret: "test-secret", TokenTTL: time.Hour, SiteName: "Movie Chat"}
	h := NewHandler(chat, cfg)

	r := gin.New()
	r.Use(sessions.Sessions("moviechat", cookie.NewStore([]byte(cfg.AppSecret))))
	r.Use(middleware.OptionalSession(cfg.AppSecret))
	r.POST("/chat", h.Chat)
	r.GET("/options", h.Options)
	r.POST("/api/session", h.IssueSession)
	r.GET("/health", h.Health)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body any, header http.Header) model.ChatResponse {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChatEndpointFlow(t *testing.T) {
	r := testEngine(t)

	resp := postChat(t, r, gin.H{"message": "Comedy", "session_id": "abc"}, nil)
	assert.Equal(t, model.AskLength, resp.Response)
	assert.Equal(t, model.LengthLabels(), resp.Options)

	resp = postChat(t, r, gin.H{
		"session_id": "abc",
		"messages": []gin.H{
			{"role": "assistant", "content": model.AskLength},
			{"role": "user", "content": model.LabelShort},
		},
	}, nil)
	assert.Equal(t, service.ResultsText, resp.Response)
	require.Len(t, resp.Cards, 2)

	// 分数按目录归一化到 1-10
	scores := []float64{resp.Cards[0].Score, resp.Cards[1].Score}
	assert.ElementsMatch(t, []float64{10, 1}, scores)
}

func TestChatEndpointRejectsMalformedBody(t *testing.T) {
	r := testEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 角色不在枚举内
	data, _ := json.Marshal(gin.H{"messages": []gin.H{{"role": "robot", "content": "hi"}}})
	req = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpointGreeting(t *testing.T) {
	r := testEngine(t)
	resp := postChat(t, r, gin.H{"message": "hello"}, nil)
	assert.Equal(t, service.GreetingText, resp.Response)
	assert.Empty(t, resp.Cards)
}

func TestIssueSessionToken(t *testing.T) {
	r := testEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			SessionID string `json:"session_id"`
			Token     string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Data.Token)
	require.NotEmpty(t, body.Data.SessionID)

	auth := http.Header{"Authorization": []string{"Bearer " + body.Data.Token}}

	// 同一个令牌对应同一个会话
	resp := postChat(t, r, gin.H{"message": "Comedy"}, auth)
	assert.Equal(t, model.AskLength, resp.Response)
	resp = postChat(t, r, gin.H{"message": model.LabelShort}, auth)
	assert.Equal(t, service.ResultsText, resp.Response)

	// 其他客户端落在默认会话，还没有选择类型
	resp = postChat(t, r, gin.H{"message": model.LabelShort}, nil)
	assert.Equal(t, model.AskGenre, resp.Response)
}

func TestOptionsEndpoint(t *testing.T) {
	r := testEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/options", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var opts service.Options
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, []string{"Comedy", "Drama"}, opts.Genres)
	assert.Equal(t, model.LengthLabels(), opts.Lengths)
	assert.False(t, opts.AudienceRequired)
}

func TestHealth(t *testing.T) {
	r := testEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
