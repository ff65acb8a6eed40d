package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/pkg/response"
)

type reactionRequest struct {
	ReactionType string `json:"reactionType" binding:"required,oneof=Like Retweet"`
}

// React 点赞 / 转发
// @Summary 对帖子做出反应
// @Tags 反应
// @Accept json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Param request body reactionRequest true "反应类型"
// @Success 201 {object} response.Response{data=model.ReactionView}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/reactions/{post_id} [post]
func (h *Handler) React(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	kind, err := model.ParseReactionKind(req.ReactionType)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	v, err := h.reactionService.React(c.Request.Context(), currentUser(c), model.PostID(c.Param("post_id")), kind)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, v)
}

// Unreact 撤销反应
// @Summary 撤销反应
// @Tags 反应
// @Accept json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Param request body reactionRequest true "反应类型"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reactions/{post_id} [delete]
func (h *Handler) Unreact(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	kind, err := model.ParseReactionKind(req.ReactionType)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.reactionService.Unreact(c.Request.Context(), currentUser(c), model.PostID(c.Param("post_id")), kind); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ListReactionsByUser 某用户的反应
// @Summary 用户的反应列表
// @Tags 反应
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param type query string false "Like 或 Retweet"
// @Success 200 {object} response.Response{data=[]model.ReactionView}
// @Router /api/v1/reactions/by_user/{user_id} [get]
func (h *Handler) ListReactionsByUser(c *gin.Context) {
	var kind model.ReactionKind
	if t := c.Query("type"); t != "" {
		k, err := model.ParseReactionKind(t)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		kind = k
	}
	list, err := h.reactionService.ListByAuthor(c.Request.Context(), currentUser(c), model.AccountID(c.Param("user_id")), kind)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}
