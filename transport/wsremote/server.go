// Package wsremote is a demo RemoteTransport backed by
// golang.org/x/net/websocket, adapted from the teacher's
// server/websocket.go connection-tracking Server: where the original
// tracked open game connections for one-way broadcast, this tracks
// open peer connections and answers two-way Envelope/Reply calls.
package wsremote

import (
	"fmt"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/lguibr/bollywood/cluster"
	"github.com/lguibr/bollywood/transport"
)

// Handler resolves a locally-owned identity and returns the message
// to reply with. It is how a Server reaches into this process's own
// Cluster without the transport package depending on it beyond this
// function value.
type Handler func(identity cluster.ClusterIdentity, message interface{}) (interface{}, error)

// Server accepts inbound peer connections and answers Envelopes by
// calling Handler, mirroring the teacher's connection-tracking map
// but over a request/response exchange instead of a broadcast fan-out.
type Server struct {
	handler Handler

	mu    sync.RWMutex
	conns map[*websocket.Conn]bool
}

// NewServer builds a Server that answers requests via handler.
func NewServer(handler Handler) *Server {
	return &Server{handler: handler, conns: make(map[*websocket.Conn]bool)}
}

// Handler is a websocket.Handler suitable for http.Handle, e.g.
// http.Handle("/cluster", websocket.Handler(server.Handler)).
func (s *Server) Handler(ws *websocket.Conn) {
	s.open(ws)
	defer s.close(ws)

	for {
		var env transport.Envelope
		if err := websocket.JSON.Receive(ws, &env); err != nil {
			return
		}
		reply := s.serve(env)
		if err := websocket.JSON.Send(ws, reply); err != nil {
			return
		}
	}
}

func (s *Server) serve(env transport.Envelope) transport.Reply {
	identity := cluster.ClusterIdentity{Kind: env.Kind, Identity: env.Identity}
	result, err := s.handler(identity, env.Message)
	if err != nil {
		return transport.Reply{Error: err.Error()}
	}
	return transport.Reply{Message: result}
}

func (s *Server) open(ws *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[ws] = true
}

func (s *Server) close(ws *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[ws]; ok {
		_ = ws.Close()
		delete(s.conns, ws)
	}
}

// ConnectionCount reports the number of currently open peer
// connections, mirroring the teacher's connection-count logging.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) String() string {
	return fmt.Sprintf("wsremote.Server(connections=%d)", s.ConnectionCount())
}
