// internal/transport/client.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tamzrod/flowmeter-logger/internal/fault"
)

// DefaultBufferSize bounds the single response read.
const DefaultBufferSize = 1024

// Client talks to the meter over TCP, one connection per request.
// The device answers a single fixed command and drops the session, so
// pooling or reuse only invites stale-connection bugs.
type Client struct {
	mu      sync.Mutex
	address string
	port    int

	timeout time.Duration
	bufSize int
}

type Config struct {
	Address string
	Port    int
	Timeout time.Duration

	// BufferSize caps the response read. Zero means DefaultBufferSize.
	BufferSize int
}

func New(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fault.Errorf(fault.KindConfig, "transport", "address required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.BufferSize < DefaultBufferSize {
		cfg.BufferSize = DefaultBufferSize
	}
	return &Client{
		address: cfg.Address,
		port:    cfg.Port,
		timeout: cfg.Timeout,
		bufSize: cfg.BufferSize,
	}, nil
}

// SetEndpoint changes the device address between requests.
// Safe at any time: every Fetch dials fresh.
func (c *Client) SetEndpoint(address string, port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = address
	c.port = port
}

// Endpoint returns the current host:port target.
func (c *Client) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return net.JoinHostPort(c.address, fmt.Sprintf("%d", c.port))
}

// Fetch sends command verbatim and returns whatever the device answered
// within one bounded read. No length validation happens here: a partial
// frame is the decoder's problem, not a transport failure.
func (c *Client) Fetch(ctx context.Context, command []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fault.New(fault.KindTransport, "transport fetch", err)
	}

	endpoint := c.Endpoint()

	conn, err := net.DialTimeout("tcp", endpoint, c.timeout)
	if err != nil {
		return nil, classify("transport dial", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := writeAll(conn, command); err != nil {
		return nil, classify("transport send", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.timeout))
	buf := make([]byte, c.bufSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, classify("transport read", err)
	}

	return buf[:n], nil
}

// classify maps net errors onto the failure taxonomy.
func classify(op string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fault.New(fault.KindTimeout, op, err)
	}
	return fault.New(fault.KindTransport, op, err)
}

func writeAll(w net.Conn, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
