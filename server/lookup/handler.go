// lookup line protocol:
// request is one line of key text, response is zero or more rows and one blank line
package lookup

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/s00inx/mdbserver/server/engine"
	"github.com/s00inx/mdbserver/server/mdb"
)

const (
	KeyMax  = 5    // significant key bytes
	LineMax = 1023 // kept bytes of one request line
)

// end-of-response marker
var blank = []byte("\n")

// Key turns a request line into a search key:
// cut at NUL, keep KeyMax bytes, then drop a trailing "\n" and a trailing "\r"
func Key(line []byte) string {
	if i := bytes.IndexByte(line, 0); i >= 0 {
		line = line[:i]
	}
	if len(line) > KeyMax {
		line = line[:KeyMax]
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line)
}

// FormatRow renders one hit, n counts over all records
func FormatRow(n int, rec mdb.Record) string {
	return fmt.Sprintf("%4d: {%s} said {%s}\n", n, rec.NameString(), rec.MsgString())
}

// Serve answers queries from r until the peer is done;
// every row is flushed on its own so the peer sees it right away
func Serve(r *bufio.Reader, w *bufio.Writer, st *mdb.Store) error {
	for {
		line, _, err := engine.ReadLine(r, LineMax)
		if err != nil {
			return benign(err)
		}

		for n, rec := range st.Search(Key(line)) {
			if _, err := w.WriteString(FormatRow(n, rec)); err != nil {
				return benign(err)
			}
			if err := w.Flush(); err != nil {
				return benign(err)
			}
		}

		if _, err := w.Write(blank); err != nil {
			return benign(err)
		}
		if err := w.Flush(); err != nil {
			return benign(err)
		}
	}
}

// benign filters out plain disconnects, they are a normal way to end a session
func benign(err error) error {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNRESET):
		return nil
	}
	return err
}
