package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/config"
	"github.com/user/moviechat/internal/middleware"
	"github.com/user/moviechat/internal/service"
)

// conversationKey Cookie Session 中保存会话标识的键
const conversationKey = "conversation_id"

// Handler HTTP 处理器
type Handler struct {
	ChatService *service.ChatService
	Config      *config.Config
}

// NewHandler 创建处理器
func NewHandler(chat *service.ChatService, cfg *config.Config) *Handler {
	return &Handler{ChatService: chat, Config: cfg}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"Path":     c.Request.URL.Path,
	}
	for k, v := range data {
		res[k] = v
	}
	return res
}

// resolveSessionID 请求体 -> 会话令牌 -> Cookie Session -> 默认会话
func (h *Handler) resolveSessionID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if id := middleware.GetSessionID(c); id != "" {
		return id
	}
	if id, ok := sessions.Default(c).Get(conversationKey).(string); ok && id != "" {
		return id
	}
	return service.DefaultSessionID
}

// ensureConversation 浏览器没有会话时分配一个新的
func (h *Handler) ensureConversation(c *gin.Context) string {
	return conversationID(sessions.Default(c))
}

// conversationID 保存失败时浏览器拿不到新会话，后续消息会落到默认会话
func conversationID(session sessions.Session) string {
	if id, ok := session.Get(conversationKey).(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	session.Set(conversationKey, id)
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Str("conversation", id).Msg("[Session] 保存会话 Cookie 失败")
	}
	return id
}
