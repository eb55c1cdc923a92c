package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/middleware"
	"github.com/user/moviechat/internal/model"
	"github.com/user/moviechat/internal/utils"
)

// ChatPage 聊天页面
func (h *Handler) ChatPage(c *gin.Context) {
	h.ensureConversation(c)
	c.HTML(http.StatusOK, "chat.html", h.RenderData(c, gin.H{
		"Title":   "Find a movie",
		"Options": h.ChatService.Options(),
	}))
}

// Chat 处理一条用户消息
// POST /chat
func (h *Handler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("[Chat] 请求体无效")
		utils.BadRequest(c, "invalid request body")
		return
	}

	sessionID := h.resolveSessionID(c, req.SessionID)
	resp := h.ChatService.Handle(c.Request.Context(), sessionID, req.Utterance())
	c.JSON(http.StatusOK, resp)
}

// Options 当前目录的可选项，供前端渲染按钮
// GET /options
func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, h.ChatService.Options())
}

// IssueSession 分配新的会话并签发令牌
// POST /api/session
func (h *Handler) IssueSession(c *gin.Context) {
	sessionID := uuid.NewString()
	token, err := middleware.GenerateSessionToken(sessionID, h.Config.AppSecret, h.Config.TokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("[Session] 签发令牌失败")
		utils.InternalServerError(c, "")
		return
	}

	c.SetCookie(middleware.TokenCookie, token, int(h.Config.TokenTTL.Seconds()), "/", "", false, true)
	utils.Success(c, gin.H{
		"session_id": sessionID,
		"token":      token,
		"expires_in": int(h.Config.TokenTTL.Seconds()),
	})
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
