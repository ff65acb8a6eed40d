package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/service"
	"github.com/d60-Lab/social-feed/pkg/response"
)

type feedQuery struct {
	pagination.Request
	WithComments bool `form:"withComments"`
	OnlyComments bool `form:"onlyComments"`
}

type postRequest struct {
	Content string `json:"content" binding:"required,max=240"`
}

func (h *Handler) feed(c *gin.Context, opts service.FeedOptions) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	opts.Page = q.Request
	opts.IncludeComments = q.WithComments
	opts.OnlyComments = q.OnlyComments
	posts, err := h.feedService.Feed(c.Request.Context(), currentUser(c), opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// ListPosts 全站最新帖子
// @Summary 最新帖子
// @Tags 帖子
// @Security BearerAuth
// @Param limit query int false "条数"
// @Param before query string false "游标：返回该帖子之前的内容"
// @Param after query string false "游标：返回该帖子之后的内容"
// @Param withComments query bool false "是否包含评论"
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	h.feed(c, service.FeedOptions{Scope: service.ScopeLatest})
}

// ListPostsByUser 某用户的帖子；作者不可见时返回空列表
// @Summary 用户帖子
// @Tags 帖子
// @Security BearerAuth
// @Param user_id path string true "作者ID"
// @Param limit query int false "条数"
// @Param before query string false "游标"
// @Param after query string false "游标"
// @Param withComments query bool false "是否包含评论"
// @Param onlyComments query bool false "只返回评论"
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Router /api/v1/posts/by_user/{user_id} [get]
func (h *Handler) ListPostsByUser(c *gin.Context) {
	h.feed(c, service.FeedOptions{Scope: service.ScopeAuthor, AuthorID: model.AccountID(c.Param("user_id"))})
}

// ListComments 帖子的评论
// @Summary 评论列表
// @Tags 帖子
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param limit query int false "条数"
// @Param before query string false "游标"
// @Param after query string false "游标"
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Router /api/v1/posts/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	h.feed(c, service.FeedOptions{Scope: service.ScopeReplies, ParentID: model.PostID(c.Param("id"))})
}

// GetPost 帖子详情
// @Summary 帖子详情
// @Tags 帖子
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.EnrichedPost}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	p, err := h.feedService.GetPost(c.Request.Context(), currentUser(c), model.PostID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// CreatePost 发帖
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.PostView}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.publisher.Publish(c.Request.Context(), currentUser(c), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, p.View())
}

// CreateComment 评论
// @Summary 评论帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "父帖子ID"
// @Param request body postRequest true "评论内容"
// @Success 201 {object} response.Response{data=model.PostView}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.publisher.Comment(c.Request.Context(), currentUser(c), model.PostID(c.Param("id")), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, p.View())
}

// DeletePost 删除帖子及其评论
// @Summary 删除帖子
// @Tags 帖子
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.feedService.DeletePost(c.Request.Context(), currentUser(c), model.PostID(c.Param("id"))); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
