package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yavik-kapadia/HTML2NDI/pkg/network/httpx"
)

const statusPushInterval = time.Second

var upgrader = websocket.Upgrader{
	// the panel may be served from a different host than the API
	CheckOrigin: func(*http.Request) bool { return true },
}

// events streams the status document over a websocket once per second
// so the control panel doesn't have to poll.
func (a *API) events(w httpx.ResponseWriter, r *httpx.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	a.log.Debug().Msgf("ws client connected from %v", c.RemoteAddr())

	go func() {
		defer func() {
			_ = c.Close()
			a.log.Debug().Msgf("ws client gone from %v", c.RemoteAddr())
		}()

		// drain control frames so pings and close are processed
		go func() {
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(statusPushInterval)
		defer ticker.Stop()
		for range ticker.C {
			_ = c.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.WriteJSON(a.currentStatus()); err != nil {
				return
			}
		}
	}()
}
