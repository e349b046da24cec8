package router

import (
	"path/filepath"

	"github.com/wb-go/wbf/ginext"

	"github.com/bgcut/bgcut/internal/api/handlers/image"
	"github.com/bgcut/bgcut/internal/api/ws"
	"github.com/bgcut/bgcut/internal/middleware"
)

// Setup wires the HTTP routes: the JSON API, the websocket progress feed,
// and the static front end.
func Setup(h *image.Handler, wsH *ws.Handler, staticDir string) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/upload", h.Upload) // uploading one or more images

	api.GET("/queue", h.Queue)          // queue state: records, cursor, multi-item flag
	api.POST("/queue/select", h.Select) // move cursor to an index
	api.POST("/queue/prev", h.Prev)     // move cursor back, clamped
	api.POST("/queue/next", h.Next)     // move cursor forward, clamped

	api.GET("/images/:id/original", h.Original) // uploaded image bytes
	api.GET("/images/:id/result", h.Result)     // processed image bytes
	api.GET("/images/:id/download", h.Download) // processed image as attachment

	api.GET("/jobs/:id/progress", h.Progress) // latest progress snapshot

	r.GET("/ws/jobs/:id", wsH.Progress) // progress stream

	if staticDir != "" {
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
		r.Static("/static", staticDir)
	}

	return r
}
