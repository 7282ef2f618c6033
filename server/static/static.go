// static file responder: web root + uri -> file on the wire
package static

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/s00inx/mdbserver/server/engine"
	"github.com/s00inx/mdbserver/server/protocol"
)

const (
	pathMax   = 4096 // PATH_MAX on linux
	indexFile = "index.html"
)

// swapped in tests to fail reads midway
var openFile = func(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Serve writes a full response for uri and returns the status it sent.
// uri is trusted to be validated by the parser (starts with '/', no "..").
// The error is for the local log: a failed write, or a read failure
// after 200 was already sent, in which case the body is just cut short.
func Serve(w *bufio.Writer, root, uri string) (int, error) {
	// file paths can't exceed pathMax, so just 404;
	// 12 leaves room for "index.html" and NUL
	if len(root)+len(uri)+12 > pathMax {
		return 404, protocol.WriteError(w, 404)
	}

	path := root + uri
	if strings.HasSuffix(path, "/") {
		path += indexFile
	}

	// a directory without trailing slash: send the browser to uri + "/"
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return 301, protocol.WriteRedirect(w, uri)
	}

	f, err := openFile(path)
	if err != nil {
		return 404, protocol.WriteError(w, 404)
	}
	defer f.Close()

	if err := protocol.WriteStatusLine(w, 200); err != nil {
		return 200, err
	}
	if err := protocol.WriteBlankLine(w); err != nil {
		return 200, err
	}

	// status is committed from here on, a read error can only truncate the body
	if _, err := engine.Stream(w, f); err != nil {
		if errors.Is(err, engine.ErrSourceRead) {
			return 200, fmt.Errorf("%s: %w", path, err)
		}
		return 200, err
	}
	return 200, nil
}
