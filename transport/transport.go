// Package transport declares the seam between the cluster layer and
// whatever carries requests to a remote member. Remote wire framing
// itself is out of scope (SPEC_FULL.md §5); this package only fixes
// the envelope shape and collaborator interface a concrete transport
// must satisfy, grounded on the teacher's server/websocket.go
// connection-tracking shape generalized to a two-way request/response
// call instead of a one-way game-state broadcast.
package transport

import "time"

// Envelope is the wire-level request sent to a remote member: the
// grain identity being addressed, the application message, and how
// long the caller is willing to wait for a reply.
type Envelope struct {
	Kind     string        `json:"kind"`
	Identity string        `json:"identity"`
	Message  interface{}   `json:"message"`
	Timeout  time.Duration `json:"timeout"`
}

// Reply is the wire-level response to an Envelope.
type Reply struct {
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RemoteTransport is the collaborator a concrete transport (websocket,
// gRPC, whatever) implements so the cluster layer can reach a member
// other than the local one.
type RemoteTransport interface {
	// Send delivers env to addr and waits for a Reply or for env's
	// Timeout to elapse.
	Send(addr string, env Envelope) (Reply, error)
	// Close releases any held connections.
	Close() error
}
