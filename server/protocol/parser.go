// parse one HTTP/1.0 GET request: request line, then headers are skipped
// only parser logic, no io besides reading lines
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/s00inx/mdbserver/server/engine"
)

const (
	maxLineLength = 1024 // for request line and headers, terminator included
)

// Request is an owned copy of the request line tokens,
// nothing in it points back into the read buffer
type Request struct {
	Method  string
	URI     string
	Version string
}

func (r Request) String() string {
	return r.Method + " " + r.URI + " " + r.Version
}

// tab, space, cr, lf
func isSep(c rune) bool {
	return c == '\t' || c == ' ' || c == '\r' || c == '\n'
}

// ParseRequestLine validates a request line;
// errors are *StatusError with code 400 or 501
func ParseRequestLine(line string) (Request, error) {
	tokens := strings.FieldsFunc(line, isSep)

	// exactly method, uri and version
	if len(tokens) != 3 {
		return Request{}, notImplemented("request line needs 3 tokens")
	}
	req := Request{Method: tokens[0], URI: tokens[1], Version: tokens[2]}

	// we only support GET
	if req.Method != "GET" {
		return req, notImplemented("method " + req.Method)
	}

	if req.Version != "HTTP/1.0" && req.Version != "HTTP/1.1" {
		return req, notImplemented("version " + req.Version)
	}

	if err := checkURI(req.URI); err != nil {
		return req, err
	}
	return req, nil
}

// uri must begin with "/" and may not climb out of the web root
func checkURI(uri string) error {
	if !strings.HasPrefix(uri, "/") {
		return badRequest("uri must start with /")
	}
	if strings.HasSuffix(uri, "/..") || strings.Contains(uri, "/../") {
		return badRequest("uri escapes web root")
	}
	return nil
}

// ReadRequest reads and validates the request line, then drops the headers.
// A request that fails validation is returned as far as it was parsed,
// so the caller can still log it.
func ReadRequest(r *bufio.Reader) (Request, error) {
	line, long, err := engine.ReadLine(r, maxLineLength-1)
	if err != nil {
		return Request{}, readFailed(err)
	}
	if long {
		return Request{}, errLineTooLong
	}

	req, err := ParseRequestLine(string(line))
	if err != nil {
		return req, err
	}

	if err := SkipHeaders(r); err != nil {
		return req, err
	}
	return req, nil
}

// a failed read of the request means the peer is gone, whatever the cause;
// the cause stays in the chain for the log
func readFailed(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrPrematureEOF
	}
	return fmt.Errorf("%w: %w", ErrPrematureEOF, err)
}

// SkipHeaders discards header lines through the empty line that ends them
func SkipHeaders(r *bufio.Reader) error {
	for {
		line, long, err := engine.ReadLine(r, maxLineLength-1)
		if err != nil {
			return readFailed(err)
		}

		// no '\n' means the stream ended inside a header
		if !long && !strings.HasSuffix(string(line), "\n") {
			return ErrPrematureEOF
		}

		if !long && (string(line) == "\r\n" || string(line) == "\n") {
			return nil
		}
	}
}
