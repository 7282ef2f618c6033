// accept loop and connection workers
package engine

import (
	"context"
	"errors"
	"net"
	"time"
)

// callback func for handling one connection,
// s is the Session related to this connection and is valid only until return
type HandleConn func(s *Session)

// Serve accepts connections on ln until ctx is done,
// every connection gets its own goroutine and runs fully sequentially there
func Serve(ctx context.Context, ln net.Listener, cb HandleConn) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	var delay time.Duration // backoff on accept errors like EMFILE
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			time.Sleep(delay)
			continue
		}
		delay = 0

		go worker(conn, cb)
	}
}

// handle one conn: session from pool -> callback -> flush & close -> back to pool
func worker(conn net.Conn, cb HandleConn) {
	s := sessionPool.Get().(*Session)
	s.attach(conn)

	cb(s)

	// error here means the peer is gone, there is nobody left to tell
	s.W.Flush()
	conn.Close() // closing socket BEFORE putting session to pool

	s.Reset()
	sessionPool.Put(s)
}
