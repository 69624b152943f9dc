package handlers

import (
	"log"
	"net/http"

	"messagely/api/middleware"
	"messagely/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSNotificationsHandler - WebSocket для уведомлений о новых и прочитанных сообщениях
func WSNotificationsHandler(hub *services.WSConnManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := middleware.CurrentUser(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade error:", err)
			return
		}
		defer conn.Close()

		// приветствие отправляем до регистрации, чтобы не писать в соединение конкурентно с hub.Send
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"connected","message":"WebSocket connected"}`))

		hub.Add(username, conn)
		defer hub.Remove(username, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
