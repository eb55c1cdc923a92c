package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalSession(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetSessionID(c))
	})
	return r
}

func TestOptionalSession(t *testing.T) {
	r := sessionEngine("secret")
	token, err := GenerateSessionToken("abc", "secret", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(req *http.Request)
		expect string
	}{
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }, "abc"},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, "abc"},
		{"none", func(*http.Request) {}, ""},
		{"garbage", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.expect, w.Body.String())
		})
	}
}

func TestOptionalSessionRejectsForeignSecret(t *testing.T) {
	r := sessionEngine("secret")
	token, err := GenerateSessionToken("abc", "other", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Body.String())
}

func TestOptionalSessionRejectsExpiredToken(t *testing.T) {
	r := sessionEngine("secret")
	token, err := GenerateSessionToken("abc", "secret", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Body.String())
}
