// Package router 组装 gin 路由与中间件。
package router

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/social-feed/docs"
	"github.com/d60-Lab/social-feed/internal/api/handler"
	"github.com/d60-Lab/social-feed/internal/api/middleware"
	"github.com/d60-Lab/social-feed/internal/api/socket"
)

// Options 路由依赖
type Options struct {
	Mode          string
	ServiceName   string
	Tracing       bool
	Sentry        bool
	RateLimiter   *middleware.RateLimiter
	Authenticator middleware.Authenticator
	Handler       *handler.Handler
	Socket        *socket.Handler
}

func New(o Options) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	r := gin.New()
	r.Use(middleware.Recovery())
	if o.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if o.Tracing {
		r.Use(otelgin.Middleware(o.ServiceName))
	}
	r.Use(middleware.Logger(), middleware.Metrics())

	h := o.Handler
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	if o.RateLimiter != nil {
		v1.Use(o.RateLimiter.Middleware())
	}

	// websocket 不能走 gzip
	if o.Socket != nil {
		v1.GET("/chat/ws", middleware.SocketAuth(o.Authenticator), o.Socket.Serve)
	}

	api := v1.Group("")
	api.Use(gzip.Gzip(gzip.DefaultCompression))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
	}

	secured := api.Group("")
	secured.Use(middleware.Auth(o.Authenticator))

	users := secured.Group("/users")
	{
		users.GET("", h.SearchUsers)
		users.GET("/me", h.Me)
		users.PUT("/me/privacy", h.SetPrivacy)
		users.DELETE("/me", h.DeleteMe)
		users.GET("/recommendations", h.Recommendations)
		users.GET("/:id", h.GetUser)
	}

	relations := secured.Group("/relations")
	{
		relations.POST("/follow/:user_id", h.Follow)
		relations.POST("/unfollow/:user_id", h.Unfollow)
		relations.GET("/:user_id/following", h.ListFollowing)
		relations.GET("/:user_id/fans", h.ListFans)
	}

	posts := secured.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", h.CreatePost)
		posts.GET("/by_user/:user_id", h.ListPostsByUser)
		posts.GET("/:id", h.GetPost)
		posts.DELETE("/:id", h.DeletePost)
		posts.GET("/:id/comments", h.ListComments)
		posts.POST("/:id/comments", h.CreateComment)
	}

	reactions := secured.Group("/reactions")
	{
		reactions.GET("/by_user/:user_id", h.ListReactionsByUser)
		reactions.POST("/:post_id", h.React)
		reactions.DELETE("/:post_id", h.Unreact)
	}

	chat := secured.Group("/chat")
	{
		chat.POST("/conversations", h.CreateConversation)
		chat.GET("/conversations", h.ListConversations)
		chat.GET("/conversations/:id/messages", h.ListMessages)
		chat.POST("/conversations/:id/messages", h.SendMessage)
	}

	return r
}
