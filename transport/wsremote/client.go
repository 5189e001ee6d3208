package wsremote

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/lguibr/bollywood/cluster"
	"github.com/lguibr/bollywood/transport"
)

// Client dials and reuses one websocket connection per peer address,
// implementing both transport.RemoteTransport and cluster.RemoteDispatcher.
type Client struct {
	origin string

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewClient builds a Client identifying itself with origin (the
// Origin header x/net/websocket requires of every dial).
func NewClient(origin string) *Client {
	return &Client{origin: origin, conns: make(map[string]*websocket.Conn)}
}

func (c *Client) connFor(addr string) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}
	conn, err := websocket.Dial(addr, "", c.origin)
	if err != nil {
		return nil, err
	}
	c.conns[addr] = conn
	return conn, nil
}

func (c *Client) drop(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		_ = conn.Close()
		delete(c.conns, addr)
	}
}

// Send implements transport.RemoteTransport.
func (c *Client) Send(addr string, env transport.Envelope) (transport.Reply, error) {
	conn, err := c.connFor(addr)
	if err != nil {
		return transport.Reply{}, err
	}
	if env.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(env.Timeout))
	}
	if err := websocket.JSON.Send(conn, env); err != nil {
		c.drop(addr)
		return transport.Reply{}, err
	}
	var reply transport.Reply
	if err := websocket.JSON.Receive(conn, &reply); err != nil {
		c.drop(addr)
		return transport.Reply{}, err
	}
	return reply, nil
}

// Close releases every held connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, conn := range c.conns {
		_ = conn.Close()
		delete(c.conns, addr)
	}
	return nil
}

// RequestRemote implements cluster.RemoteDispatcher by addressing
// member's ws endpoint directly. Like any JSON-framed transport, the
// reply comes back as generic map/slice/scalar values rather than the
// original Go type; callers that need a concrete ActivationResponse
// or grain reply type must decode reply.Message themselves. Wire
// framing is explicitly out of scope (SPEC_FULL.md §5) so this demo
// adapter does not attempt to hide that.
func (c *Client) RequestRemote(member cluster.Member, identity cluster.ClusterIdentity, message interface{}, timeout time.Duration) (interface{}, error) {
	addr := fmt.Sprintf("ws://%s:%d/cluster", member.Host, member.Port)
	reply, err := c.Send(addr, transport.Envelope{
		Kind:     identity.Kind,
		Identity: identity.Identity,
		Message:  message,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("wsremote: %s", reply.Error)
	}
	return reply.Message, nil
}
