package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/collabedit/internal/collab"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options tune the websocket endpoint.
type Options struct {
	// AllowedOrigin is matched against the Origin header; "*" or "" allows any origin.
	AllowedOrigin   string
	MaxMessageBytes int64
	SendBuffer      int
}

func (o Options) withDefaults() Options {
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 1 << 20
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	return o
}

// Handler upgrades HTTP requests to websocket connections attached to a router.
type Handler struct {
	router   *collab.Router
	log      *zap.Logger
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(router *collab.Router, log *zap.Logger, opts Options) *Handler {
	opts = opts.withDefaults()
	h := &Handler{router: router, log: log.Named("ws"), opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	allowed := strings.TrimRight(h.opts.AllowedOrigin, "/")
	if allowed == "" || allowed == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// non-browser clients do not send Origin
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme+"://"+u.Host, allowed)
}

// ServeHTTP performs the upgrade and runs the client's pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn, h.router, h.log, h.opts)
	h.router.Attach(c)
	go c.WritePump()
	// r.Context() is canceled once ServeHTTP returns; the pumps outlive it.
	go c.ReadPump(context.WithoutCancel(r.Context()))
}

// Register mounts the handler at path on a gin router.
func (h *Handler) Register(r gin.IRouter, path string) {
	r.GET(path, gin.WrapH(h))
}
