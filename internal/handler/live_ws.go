package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"feedra/config"
	"feedra/internal/auth"
	"feedra/internal/domain"
	"feedra/internal/projector"
	"feedra/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// liveFrame is what goes over the wire on every change batch: the full
// snapshot plus the viewer's derived state after folding it in.
type liveFrame struct {
	Type          string                   `json:"type"`
	Donations     []domain.Donation        `json:"donations,omitempty"`
	Changes       []repository.Change      `json:"changes,omitempty"`
	Stats         projector.Stats          `json:"stats"`
	Notifications []projector.Notification `json:"notifications"`
	Unread        int                      `json:"unread"`
}

type liveError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// UpgradeLiveWS upgrades to a WebSocket that streams live donation
// batches for the authenticated viewer. Query params: token (required),
// status, user_id, limit — the same filter vocabulary as the REST
// listing. Client frames mark_read {"type":"mark_read","id":N} and
// mark_all_read mutate the viewer's notification state; the next frame
// reflects them.
func UpgradeLiveWS(cfg *config.JWTConfig, repo *repository.DonationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		f := repository.Filter{Status: c.DefaultQuery("status", domain.StatusAll)}
		if v := c.Query("user_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
				return
			}
			f.OwnerID = uint(id)
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			f.Limit = n
		}

		conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		proj := projector.New(claims.UserID)
		send := make(chan []byte, 64)

		enqueue := func(v interface{}) {
			raw, err := json.Marshal(v)
			if err != nil {
				return
			}
			select {
			case send <- raw:
			default:
				log.Printf("[live] user %d slow consumer, frame dropped", claims.UserID)
			}
		}

		cancel := repo.Subscribe(f,
			func(b repository.Batch) {
				proj.Apply(b)
				enqueue(liveFrame{
					Type:          "batch",
					Donations:     b.Donations,
					Changes:       b.Changes,
					Stats:         proj.Stats(),
					Notifications: proj.Notifications(),
					Unread:        proj.UnreadCount(),
				})
			},
			func(msg string) {
				enqueue(liveError{Type: "error", Message: msg})
			})
		defer cancel()

		conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(livePongWait))
			return nil
		})

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(livePingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()
		defer close(done)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg struct {
				Type string `json:"type"`
				ID   uint   `json:"id"`
			}
			if json.Unmarshal(raw, &msg) != nil {
				continue
			}
			switch msg.Type {
			case "mark_read":
				proj.MarkRead(msg.ID)
			case "mark_all_read":
				proj.MarkAllRead()
			default:
				continue
			}
			enqueue(liveFrame{
				Type:          "notifications",
				Stats:         proj.Stats(),
				Notifications: proj.Notifications(),
				Unread:        proj.UnreadCount(),
			})
		}
	}
}
