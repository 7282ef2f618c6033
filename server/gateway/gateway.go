// lookup gateway: browser GET -> lookup protocol -> html table
package gateway

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/s00inx/mdbserver/server/lookup"
	"github.com/s00inx/mdbserver/server/protocol"
)

const (
	Path      = "/mdb-lookup"
	keyPrefix = Path + "?key="
)

const form = "<html><body>\n" +
	"<h1>mdb-lookup</h1>\n" +
	"<p>\n" +
	"<form method=GET action=/mdb-lookup>\n" +
	"lookup: <input type=text name=key>\n" +
	"<input type=submit>\n" +
	"</form>\n" +
	"<p>\n"

const (
	tableOpen  = "<p><table border>\n"
	tableClose = "</table>\n</body></html>\n"
	docClose   = "</body></html>\n"
	rowEven    = "<tr><td>\n"
	rowOdd     = "<tr><td bgcolor=yellow>\n"
)

// IsLookupURI reports whether uri belongs to the gateway
func IsLookupURI(uri string) bool {
	return uri == Path || strings.HasPrefix(uri, Path+"?")
}

type Gateway struct {
	client *lookup.Client
}

func New(client *lookup.Client) *Gateway {
	return &Gateway{client: client}
}

// Serve answers a gateway uri and returns the status sent.
// The key after "key=" goes upstream byte for byte, no url-decoding.
func (g *Gateway) Serve(w *bufio.Writer, uri string) (int, error) {
	if !IsLookupURI(uri) {
		return 404, protocol.WriteError(w, 404)
	}

	key, ok := strings.CutPrefix(uri, keyPrefix)
	if !ok {
		return 200, sendForm(w)
	}
	return g.lookup(w, key)
}

func sendForm(w *bufio.Writer) error {
	if err := protocol.WriteStatusLine(w, 200); err != nil {
		return err
	}
	if err := protocol.WriteBlankLine(w); err != nil {
		return err
	}
	w.WriteString(form)
	w.WriteString(docClose)
	return w.Flush()
}

// render state of one lookup response
type table struct {
	w         *bufio.Writer
	committed bool // status line is on the wire
	rows      int
}

// commit sends status, form and table head; called once data is known to exist
func (t *table) commit() error {
	t.committed = true
	if err := protocol.WriteStatusLine(t.w, 200); err != nil {
		return err
	}
	if err := protocol.WriteBlankLine(t.w); err != nil {
		return err
	}
	t.w.WriteString(form)
	t.w.WriteString(tableOpen)
	return t.w.Flush()
}

func (t *table) line(line []byte) error {
	if !t.committed {
		if err := t.commit(); err != nil {
			return err
		}
	}
	if bytes.Equal(line, []byte("\n")) {
		t.w.WriteString(tableClose)
		return t.w.Flush()
	}

	if t.rows%2 == 0 {
		t.w.WriteString(rowEven)
	} else {
		t.w.WriteString(rowOdd)
	}
	t.w.Write(line)
	t.rows++
	return t.w.Flush()
}

func (g *Gateway) lookup(w *bufio.Writer, key string) (int, error) {
	t := &table{w: w}
	err := g.client.Lookup(key, t.line)
	if err == nil {
		return 200, nil
	}

	// nothing sent yet, the browser can still get a proper status
	if !t.committed {
		if werr := protocol.WriteError(w, 500); werr != nil {
			return 500, fmt.Errorf("%w; then %w", err, werr)
		}
		return 500, err
	}
	return 200, fmt.Errorf("response cut after %d rows: %w", t.rows, err)
}
