package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenCookie 会话令牌 Cookie 名
const TokenCookie = "token"

// ContextSessionID gin 上下文中保存会话标识的键
const ContextSessionID = "session_id"

// Claims 会话令牌声明
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// OptionalSession 可选会话中间件：令牌有效时把会话标识写入上下文，否则什么也不做
func OptionalSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractClaims(c, secret)
		if err == nil && claims.SessionID != "" {
			c.Set(ContextSessionID, claims.SessionID)

			// 滑动续期：有效期消耗过半时换发新令牌
			if shouldRefresh(claims) {
				ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
				if newToken, err := GenerateSessionToken(claims.SessionID, secret, ttl); err == nil {
					c.SetCookie(TokenCookie, newToken, int(ttl.Seconds()), "/", "", false, true)
				}
			}
		}
		c.Next()
	}
}

// GetSessionID 从上下文获取会话标识（没有返回空字符串）
func GetSessionID(c *gin.Context) string {
	if v, exists := c.Get(ContextSessionID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// extractClaims 从 Cookie 或 Header 中提取令牌
func extractClaims(c *gin.Context, secret string) (*Claims, error) {
	var tokenString string

	// 优先从 Cookie 获取
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		tokenString = cookie
	} else {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GenerateSessionToken 为会话标识签发令牌
func GenerateSessionToken(sessionID, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// shouldRefresh 已经消耗了总有效期的一半以上
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}
	total := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	return time.Since(claims.IssuedAt.Time) > total/2
}
