package frames

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"chartwatch/log"
)

// WSSource accepts chart frames pushed over a websocket, typically from a
// phone or browser pointed at the trading screen. Each binary message is one
// encoded image; only the newest decoded frame is retained.
type WSSource struct {
	server   *http.Server
	listener net.Listener

	mu     sync.Mutex
	latest image.Image
	closed bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1024,
	// Frames come from the user's own device on the local network.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ListenWS binds addr and starts accepting frame connections.
func ListenWS(addr string) (*WSSource, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &WSSource{listener: ln}
	mux := http.NewServeMux()
	mux.HandleFunc("/frames", s.handle)
	s.server = &http.Server{Handler: mux}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("frame server error: %v", err)
		}
	}()

	return s, nil
}

// Addr returns the bound address, useful when addr had port 0.
func (s *WSSource) Addr() string {
	return s.listener.Addr().String()
}

func (s *WSSource) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("frame upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Info("frame_source_connected: " + conn.RemoteAddr().String())

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("frame_source_disconnected: " + conn.RemoteAddr().String())
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			log.Warnf("frame decode error: %v", err)
			continue
		}
		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
	}
}

func (s *WSSource) Next() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

func (s *WSSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.server.Close()
}
