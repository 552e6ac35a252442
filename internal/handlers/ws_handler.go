package handlers

import (
	"net/http"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/realtime"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"github.com/Dias221467/Recovery_Tracker/pkg/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationStreamHandler pushes new notifications to the client over a
// websocket. Browsers cannot set headers on the handshake, so the token may
// also come in the query string.
type NotificationStreamHandler struct {
	Hub  *realtime.Hub
	Auth *middleware.Authenticator
}

func NewNotificationStreamHandler(hub *realtime.Hub, auth *middleware.Authenticator) *NotificationStreamHandler {
	return &NotificationStreamHandler{Hub: hub, Auth: auth}
}

// GET /notifications/ws
func (h *NotificationStreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	claims, err := h.Auth.Resolve(token)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		writeEnvelope(w, http.StatusUnauthorized, Envelope{Error: "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	sub := h.Hub.Subscribe(claims.UserID)
	log := logger.Log.WithField("user_id", claims.UserID)
	log.Info("WebSocket connected")

	go writePump(conn, sub)
	readPump(conn)

	h.Hub.Unsubscribe(sub)
	log.Info("WebSocket disconnected")
}

// readPump discards client frames and returns when the connection drops.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.WithFields(logrus.Fields{"error": err}).Debug("WebSocket read error")
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *realtime.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
