package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/auth"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/middleware"
	"investx/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 512
)

// AccountLoader supplies the snapshot sent right after the socket opens.
type AccountLoader interface {
	Profile(ctx context.Context, accountID uint) (*models.Account, error)
}

// NewUpgrader allows the listed origins, or any origin when the list is empty or holds "*".
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// UpgradeAccountWS authenticates ?token=<access token> and streams account_updated messages.
func UpgradeAccountWS(cfg *config.JWTConfig, hub *Hub, accounts AccountLoader, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			middleware.RespondError(c, apperr.ErrUnauthorized.WithMessage("token required"))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil || claims.Role != domain.RoleUser {
			middleware.RespondError(c, apperr.ErrInvalidToken)
			return
		}
		snapshot, err := accounts.Profile(c.Request.Context(), claims.UserID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn().Err(err).Uint("account_id", claims.UserID).Msg("websocket upgrade failed")
			return
		}
		client := NewClient(claims.UserID)
		hub.Register(client)
		defer client.Close()

		if data, err := json.Marshal(AccountUpdate{Type: "account_updated", Account: snapshot}); err == nil {
			client.Send <- data
		}
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection and keeps it alive with pings.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump discards client messages; it returns when the peer goes away.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
