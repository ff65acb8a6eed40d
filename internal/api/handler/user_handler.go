package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/pkg/response"
)

type privacyRequest struct {
	IsPrivate *bool `json:"isPrivate" binding:"required"`
}

func offsetParams(c *gin.Context) (int, int) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return skip, limit
}

// Me 当前用户及其关注 / 粉丝
// @Summary 当前用户
// @Tags 用户
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.FullProfile}
// @Router /api/v1/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	p, err := h.userService.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// GetUser 用户资料
// @Summary 用户资料
// @Tags 用户
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	p, err := h.userService.GetUser(c.Request.Context(), currentUser(c), model.AccountID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// SearchUsers 按用户名搜索
// @Summary 搜索用户
// @Tags 用户
// @Security BearerAuth
// @Param username query string true "用户名片段"
// @Param skip query int false "偏移"
// @Param limit query int false "条数"
// @Success 200 {object} response.Response{data=[]model.UserView}
// @Router /api/v1/users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	skip, limit := offsetParams(c)
	list, err := h.userService.SearchByUsername(c.Request.Context(), c.Query("username"), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// Recommendations 推荐关注
// @Summary 推荐用户
// @Tags 用户
// @Security BearerAuth
// @Param skip query int false "偏移"
// @Param limit query int false "条数"
// @Success 200 {object} response.Response{data=[]model.UserView}
// @Router /api/v1/users/recommendations [get]
func (h *Handler) Recommendations(c *gin.Context) {
	skip, limit := offsetParams(c)
	list, err := h.userService.Recommendations(c.Request.Context(), currentUser(c), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// SetPrivacy 设置私密账号
// @Summary 设置隐私
// @Tags 用户
// @Accept json
// @Security BearerAuth
// @Param request body privacyRequest true "是否私密"
// @Success 200 {object} response.Response
// @Router /api/v1/users/me/privacy [put]
func (h *Handler) SetPrivacy(c *gin.Context) {
	var req privacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.userService.SetPrivacy(c.Request.Context(), currentUser(c), *req.IsPrivate); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteMe 注销账号
// @Summary 注销账号
// @Tags 用户
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/users/me [delete]
func (h *Handler) DeleteMe(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
