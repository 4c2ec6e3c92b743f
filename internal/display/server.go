// Package display serves the framebuffer UI's status feed: an HTTP
// snapshot endpoint and a websocket that pushes one status per heavy tick.
// The framebuffer rendering itself (fonts, charts, touchscreen) is treated
// as an opaque external collaborator; this package only owns the status
// transport. Grounded on fan2go's echo-based webserver (internal/api) and
// its reprint.This deep-copy-before-serialize idiom.
package display

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/qdm12/reprint"
	"github.com/yuri-rage/pit-ninja/internal/pitcontrol"
	"github.com/yuri-rage/pit-ninja/internal/ui"
)

const indentationChar = "  "

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Sink is the StatusSnapshot consumer each heavy tick's snapshot is pushed
// into through Update. Both the HTTP snapshot endpoint and the websocket
// broadcaster read from the same sink.
type Sink struct {
	mu     sync.RWMutex
	latest *pitcontrol.StatusSnapshot

	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
}

func NewSink() *Sink {
	return &Sink{conns: make(map[*websocket.Conn]struct{})}
}

// Update publishes a new snapshot: stores it for the HTTP endpoint and
// pushes it to every connected websocket client. Each write is synchronous,
// so a slow client delays this call; a client whose write fails is closed
// and dropped.
func (s *Sink) Update(snap pitcontrol.StatusSnapshot) {
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteJSON(snap); err != nil {
			ui.Debug("display: dropping websocket client: %v", err)
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

func (s *Sink) Latest() *pitcontrol.StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Sink) addConn(conn *websocket.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Sink) removeConn(conn *websocket.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

// NewServer builds the echo webserver exposing the status surface.
func NewServer(sink *Sink) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.Pre(middleware.AddTrailingSlash())
	server.Use(middleware.Secure())
	server.Use(middleware.Recover())

	server.GET("/status/", func(c echo.Context) error {
		latest := sink.Latest()
		if latest == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		snap := reprint.This(latest)
		return c.JSONPretty(http.StatusOK, snap, indentationChar)
	})

	server.GET("/status/ws/", func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		sink.addConn(conn)
		defer func() {
			sink.removeConn(conn)
			conn.Close()
		}()

		if snap := sink.Latest(); snap != nil {
			_ = conn.WriteJSON(*snap)
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return nil
			}
		}
	})

	return server
}
