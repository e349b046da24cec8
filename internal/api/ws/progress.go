package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/bgcut/bgcut/internal/progress"
)

// Handler streams per-job progress updates over a websocket.
type Handler struct {
	hub      *progress.Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *progress.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API is same-origin in production and CORS-open in dev.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Progress upgrades the connection and pushes updates for one job until the
// job finishes or the client disconnects.
func (h *Handler) Progress(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Logger.Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(id)
	defer cancel()

	// Send the latest known state first so late subscribers catch up.
	if u, ok := h.hub.Latest(id); ok {
		if err := conn.WriteJSON(u); err != nil {
			return
		}
		if u.Phase == progress.PhaseDone || u.Phase == progress.PhaseFailed {
			return
		}
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			if err := conn.WriteJSON(u); err != nil {
				return
			}
			if u.Phase == progress.PhaseDone || u.Phase == progress.PhaseFailed {
				return
			}
		}
	}
}
