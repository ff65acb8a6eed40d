package socket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

// Chat 连接上可调用的私信操作
type Chat interface {
	CreateConversation(ctx context.Context, initiatorID model.AccountID, memberIDs []model.AccountID) (*model.ConversationView, error)
	SendMessage(ctx context.Context, userID model.AccountID, conversationID model.ConversationID, content string) (*model.MessageView, error)
	ListConversations(ctx context.Context, userID model.AccountID, page pagination.Request) ([]model.ConversationView, error)
}

// 上行事件
const (
	inCreateConversation = "createConversation"
	inSendMessage        = "sendMessage"
)

type createConversationEvent struct {
	Users []model.AccountID `json:"users"`
}

type sendMessageEvent struct {
	ConversationID model.ConversationID `json:"conversationId"`
	Message        string               `json:"message"`
}

type client struct {
	hub    *Hub
	chat   Chat
	conn   *websocket.Conn
	userID model.AccountID
	send   chan []byte
}

func (c *client) push(msg []byte) {
	select {
	case c.send <- msg:
	default:
		logger.Warn("socket send buffer full, drop event", zap.String("user", c.userID.String()))
	}
}

func (c *client) pushError(err error) {
	msg, encErr := encode(EventError, map[string]string{"message": errorMessage(c.userID, err)})
	if encErr == nil {
		c.push(msg)
	}
}

// errorMessage 只向客户端透出业务错误，其余记录日志后返回通用提示
func errorMessage(userID model.AccountID, err error) string {
	if apperr.Kind(err) != nil {
		return err.Error()
	}
	logger.Error("socket event failed", zap.String("user", userID.String()), zap.Error(err))
	return "internal server error"
}

// readPump 处理上行事件；创建会话与发送消息的推送由 ChatService 经 Hub 完成
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("socket read failed", zap.String("user", c.userID.String()), zap.Error(err))
			}
			return
		}
		c.handle(env)
	}
}

func (c *client) handle(env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	switch env.Event {
	case inCreateConversation:
		var in createConversationEvent
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.pushError(apperr.BadRequest("invalid " + env.Event + " payload"))
			return
		}
		if _, err := c.chat.CreateConversation(ctx, c.userID, in.Users); err != nil {
			c.pushError(err)
		}
	case inSendMessage:
		var in sendMessageEvent
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.pushError(apperr.BadRequest("invalid " + env.Event + " payload"))
			return
		}
		if _, err := c.chat.SendMessage(ctx, c.userID, in.ConversationID, in.Message); err != nil {
			c.pushError(err)
		}
	default:
		c.pushError(apperr.BadRequest("unknown event " + env.Event))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
