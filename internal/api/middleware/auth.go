package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/pkg/response"
)

const userKey = "user_id"

// Authenticator 校验 token 并返回账号 ID
type Authenticator interface {
	Authenticate(token string) (model.AccountID, error)
}

// BearerToken 读取 Authorization: Bearer <token>；allowQuery 时也接受 ?token=
func BearerToken(c *gin.Context, allowQuery bool) string {
	h := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}

// Auth 要求有效 token
func Auth(a Authenticator) gin.HandlerFunc {
	return authenticate(a, false)
}

// SocketAuth websocket 握手无法带自定义头时可以走 query 参数
func SocketAuth(a Authenticator) gin.HandlerFunc {
	return authenticate(a, true)
}

func authenticate(a Authenticator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c, allowQuery)
		if token == "" {
			response.Unauthorized(c, "missing token")
			return
		}
		id, err := a.Authenticate(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		c.Set(userKey, id)
		c.Next()
	}
}

// CurrentUser 返回 Auth 中间件写入的账号 ID
func CurrentUser(c *gin.Context) model.AccountID {
	if v, ok := c.Get(userKey); ok {
		if id, ok := v.(model.AccountID); ok {
			return id
		}
	}
	return ""
}
