package lookup

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/s00inx/mdbserver/server/engine"
)

// kept bytes of one response line; the tail of a longer line is dropped
// and the kept part is still delivered as one '\n'-terminated line
const respLineMax = 999

// ErrUpstreamClosed means the lookup server hung up before the blank line
var ErrUpstreamClosed = errors.New("lookup server closed connection mid-response")

// Client is one long-lived connection to a lookup server, shared by many callers.
// The protocol has no request ids, so a whole query/response runs under mu.
type Client struct {
	dial func() (net.Conn, error)

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// NewClient does not connect; the first Lookup dials
func NewClient(dial func() (net.Conn, error)) *Client {
	return &Client{dial: dial}
}

// Connect dials now instead of on first use
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect()
}

func (c *Client) connect() error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("dial lookup server: %w", err)
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	c.w = bufio.NewWriter(conn)
	return nil
}

// drop a connection whose stream state is unknown, next Lookup redials
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.r, c.w = nil, nil, nil
}

// Lookup sends key and calls fn for every response line, the blank terminator included.
// When fn fails the rest of the response is still read through the terminator
// and fn's error is returned.
func (c *Client) Lookup(key string, fn func(line []byte) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(); err != nil {
		return err
	}

	if _, err := c.w.WriteString(key + "\n"); err != nil {
		c.drop()
		return fmt.Errorf("send key: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		c.drop()
		return fmt.Errorf("send key: %w", err)
	}

	var fnErr error
	for {
		line, long, err := engine.ReadLine(c.r, respLineMax)
		if err != nil {
			c.drop()
			if errors.Is(err, io.EOF) {
				return ErrUpstreamClosed
			}
			return fmt.Errorf("read response: %w", err)
		}

		// a last line without '\n' means EOF came before the terminator
		if !long && !bytes.HasSuffix(line, blank) {
			c.drop()
			return ErrUpstreamClosed
		}

		if long {
			line = append(line, '\n')
		}

		if fnErr == nil {
			fnErr = fn(line)
		}
		if bytes.Equal(line, blank) {
			return fnErr
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.r, c.w = nil, nil, nil
	return err
}
