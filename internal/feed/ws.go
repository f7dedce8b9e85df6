package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit    = 512
	wsPongInterval = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the dashboard origin once it is deployed
	},
}

type wsWelcome struct {
	Type      string `json:"type"` // always "welcome"
	Transport string `json:"transport"`
	Stats     Stats  `json:"stats"`
}

// WSHandler subscribes a WebSocket client to the activity feed. Clients
// are write-only from the hub's perspective: the read loop exists solely
// to notice the disconnect.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.AddWS(ws)
		log.Printf("[feed-ws] client connected from %s", c.ClientIP())

		welcome, _ := json.Marshal(wsWelcome{
			Type:      "welcome",
			Transport: "websocket",
			Stats:     hub.Stats(),
		})
		_ = ws.WriteMessage(websocket.TextMessage, welcome)

		ws.SetReadLimit(wsReadLimit)
		_ = ws.SetReadDeadline(time.Now().Add(wsPongInterval))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsPongInterval))
		})

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
			_ = ws.SetReadDeadline(time.Now().Add(wsPongInterval))
		}

		hub.RemoveWS(ws)
		log.Printf("[feed-ws] client disconnected from %s", c.ClientIP())
	}
}
