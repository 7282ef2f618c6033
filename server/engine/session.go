package engine

import (
	"bufio"
	"net"
	"sync"
)

const (
	rwBufSize = 4096 // size of session reader and writer buffers
)

// session is an arena for pre-allocated connection data;
// it is owned by exactly one connection goroutine from accept to close
type Session struct {
	Conn net.Conn
	R    *bufio.Reader
	W    *bufio.Writer
}

// reset session for put it to pool,
// buffers are kept but detached from the old conn
func (s *Session) Reset() {
	s.Conn = nil
	s.R.Reset(nil)
	s.W.Reset(nil)
}

// attach pooled buffers to new conn
func (s *Session) attach(conn net.Conn) {
	s.Conn = conn
	s.R.Reset(conn)
	s.W.Reset(conn)
}

// RemoteIP is the peer address without port, "-" if unknown
func (s *Session) RemoteIP() string {
	if s.Conn == nil {
		return "-"
	}
	addr := s.Conn.RemoteAddr()
	if addr == nil {
		return "-"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

var sessionPool = sync.Pool{
	New: func() any {
		return &Session{
			R: bufio.NewReaderSize(nil, rwBufSize),
			W: bufio.NewWriterSize(nil, rwBufSize),
		}
	},
}

