package socket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-feed/internal/api/middleware"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/pkg/logger"
)

// EventConversations 连接建立后推送当前会话列表
const EventConversations = "conversations"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub  *Hub
	chat Chat
}

func NewHandler(hub *Hub, chat Chat) *Handler {
	return &Handler{hub: hub, chat: chat}
}

// Serve 需在 middleware.SocketAuth 之后挂载
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{hub: h.hub, chat: h.chat, conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}
	h.hub.register(cl)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	convs, err := h.chat.ListConversations(ctx, userID, pagination.Request{})
	cancel()
	if err != nil {
		cl.pushError(err)
	} else if msg, err := encode(EventConversations, convs); err == nil {
		cl.push(msg)
	}

	go cl.writePump()
	go cl.readPump()
}
