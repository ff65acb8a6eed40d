package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-feed/internal/api/middleware"
	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/service"
	"github.com/d60-Lab/social-feed/pkg/response"
)

// Handler 聚合全部 HTTP 处理函数
type Handler struct {
	authService     service.AuthService
	userService     service.UserService
	relService      service.RelationshipService
	feedService     service.FeedService
	publisher       *service.Publisher
	reactionService service.ReactionService
	chatService     service.ChatService
}

// Services 构造 Handler 所需的服务
type Services struct {
	Auth         service.AuthService
	User         service.UserService
	Relationship service.RelationshipService
	Feed         service.FeedService
	Publisher    *service.Publisher
	Reaction     service.ReactionService
	Chat         service.ChatService
}

func New(s Services) *Handler {
	return &Handler{
		authService:     s.Auth,
		userService:     s.User,
		relService:      s.Relationship,
		feedService:     s.Feed,
		publisher:       s.Publisher,
		reactionService: s.Reaction,
		chatService:     s.Chat,
	}
}

// fail 按错误分类映射 HTTP 状态码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, apperr.ErrBadRequest):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func currentUser(c *gin.Context) model.AccountID { return middleware.CurrentUser(c) }

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
