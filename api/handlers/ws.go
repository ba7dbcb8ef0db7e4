package handlers

import (
	"log"
	"net/http"

	"noteboard/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// BoardWSHandler - WebSocket endpoint живых обновлений доски.
// Доска публичная, аутентификации нет: зрители получают только approved записки.
func BoardWSHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	services.GlobalBoardWSManager.Add(conn)
	defer services.GlobalBoardWSManager.Remove(conn)

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"connected","message":"WebSocket connected"}`))

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		// Входящие сообщения от зрителей не обрабатываются
	}
}
