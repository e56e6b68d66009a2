package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fenwick-labs/voicegate/internal/relay"
)

// gorillaUpgrader adapts gorilla/websocket.Upgrader to the websocketUpgrader
// interface, enforcing the configured CORS allow-list on the handshake.
// Grounded on the teacher's ws_control_plane.go upgrader construction,
// with CheckOrigin replaced by a real allow-list instead of the teacher's
// always-true stub.
type gorillaUpgrader struct {
	upgrader websocket.Upgrader
}

func newGorillaUpgrader(allowedOrigins []string) *gorillaUpgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			break
		}
		allowed[o] = struct{}{}
	}

	return &gorillaUpgrader{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if allowAll {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (g *gorillaUpgrader) Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (relay.BrowserConn, error) {
	conn, err := g.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
