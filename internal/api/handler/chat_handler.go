package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/pkg/response"
)

type conversationRequest struct {
	Users []model.AccountID `json:"users" binding:"required,min=1"`
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

// CreateConversation 创建会话：发起者需关注所有成员
// @Summary 创建会话
// @Tags 私信
// @Accept json
// @Security BearerAuth
// @Param request body conversationRequest true "成员"
// @Success 201 {object} response.Response{data=model.ConversationView}
// @Failure 401 {object} response.Response
// @Router /api/v1/chat/conversations [post]
func (h *Handler) CreateConversation(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	conv, err := h.chatService.CreateConversation(c.Request.Context(), currentUser(c), req.Users)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, conv)
}

// ListConversations 当前用户的会话
// @Summary 会话列表
// @Tags 私信
// @Security BearerAuth
// @Param limit query int false "条数"
// @Param before query string false "游标"
// @Param after query string false "游标"
// @Success 200 {object} response.Response{data=[]model.ConversationView}
// @Router /api/v1/chat/conversations [get]
func (h *Handler) ListConversations(c *gin.Context) {
	var page pagination.Request
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	list, err := h.chatService.ListConversations(c.Request.Context(), currentUser(c), page)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// ListMessages 会话消息，仅成员可读
// @Summary 消息列表
// @Tags 私信
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Param limit query int false "条数"
// @Param before query string false "游标"
// @Param after query string false "游标"
// @Success 200 {object} response.Response{data=[]model.MessageView}
// @Router /api/v1/chat/conversations/{id}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	var page pagination.Request
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	list, err := h.chatService.ListMessages(c.Request.Context(), currentUser(c), model.ConversationID(c.Param("id")), page)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// SendMessage 发送消息
// @Summary 发送消息
// @Tags 私信
// @Accept json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Param request body messageRequest true "消息内容"
// @Success 201 {object} response.Response{data=model.MessageView}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/chat/conversations/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	msg, err := h.chatService.SendMessage(c.Request.Context(), currentUser(c), model.ConversationID(c.Param("id")), req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, msg)
}
