package netstream

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // operator UI may be served from any local origin
	},
}

// RegisterRoutes wires the live network stream WebSocket endpoint to
// the router.
func RegisterRoutes(router chi.Router, hub *Hub) {
	router.HandleFunc("/v1/network/stream", websocketHandler(hub))
}

func websocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Accept(conn)
	}
}
