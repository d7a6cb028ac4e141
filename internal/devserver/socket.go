package devserver

import (
	"net/http"
	"time"

	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/websocket"
)

// 连接元数据 key
const metaUserID = "user_id"

type authenticateRequest struct {
	Token     string `json:"token"`
	RequestID string `json:"request_id,omitempty"`
}

type authSuccess struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type authFailure struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type pong struct {
	Timestamp int64 `json:"timestamp"`
}

// socketHandler 实现 websocket.ServerHandler
type socketHandler struct {
	s *Server
}

func (h *socketHandler) OnOpen(conn *websocket.Connection, r *http.Request) error {
	h.s.logger.Info("devserver session opened",
		"conn_id", conn.ID(),
		"remote_addr", conn.RemoteAddr(),
		"has_bearer", r.Header.Get("Authorization") != "",
	)
	return nil
}

func (h *socketHandler) OnEvent(conn *websocket.Connection, env websocket.Envelope) {
	switch env.Event {
	case realtime.EventAuthenticate:
		h.authenticate(conn, env)
	case realtime.EventPing:
		_ = h.s.socket.Emit(conn, realtime.EventPong, pong{Timestamp: time.Now().UnixMilli()})
	default:
		h.s.logger.Debug("devserver event ignored", "conn_id", conn.ID(), "event", env.Event)
	}
}

func (h *socketHandler) OnClose(conn *websocket.Connection, reason string) {
	user, _ := sessionUser(conn)
	h.s.logger.Info("devserver session closed", "conn_id", conn.ID(), "user_id", user, "reason", reason)
}

func (h *socketHandler) authenticate(conn *websocket.Connection, env websocket.Envelope) {
	var req authenticateRequest
	if err := env.Decode(&req); err != nil {
		_ = h.s.socket.Emit(conn, realtime.EventAuthError, authFailure{Message: "malformed authenticate payload"})
		return
	}

	claims, err := h.s.jwt.Verify(req.Token)
	if err != nil {
		h.s.logger.Info("devserver authentication rejected", "conn_id", conn.ID(), "error", err)
		_ = h.s.socket.Emit(conn, realtime.EventAuthError, authFailure{Message: err.Error(), RequestID: req.RequestID})
		return
	}

	userID := claims.UserID()
	conn.SetMetadata(metaUserID, userID)
	_ = h.s.socket.Emit(conn, realtime.EventAuthSuccess, authSuccess{
		UserID:    userID,
		Role:      claims.Role,
		RequestID: req.RequestID,
	})
	_ = h.s.socket.Emit(conn, realtime.EventBadgeCountUpdated, h.s.counts.get(userID))
	h.s.logger.Info("devserver session authenticated", "conn_id", conn.ID(), "user_id", userID)
}

// sessionUser 返回已认证连接的用户 ID
func sessionUser(conn *websocket.Connection) (string, bool) {
	v, ok := conn.GetMetadata(metaUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
