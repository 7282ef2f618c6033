package protocol

import (
	"bufio"
	"strconv"
)

// lookup table for reason phrases
// i use flat list instead of map bc codes is fixed; never written after init
var statusTable = [504]string{
	// 2xx
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",

	// 3xx
	301: "Moved Permanently",
	302: "Moved Temporarily",
	304: "Not Modified",

	// 4xx
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",

	// 5xx
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

const unknownStatus = "Unknown Status Code"

// for fast access
var (
	proto = []byte("HTTP/1.0 ")
	crlf  = []byte("\r\n")
)

func ReasonPhrase(code int) string {
	if code < 0 || code >= len(statusTable) || statusTable[code] == "" {
		return unknownStatus
	}
	return statusTable[code]
}

// AppendStatusLine appends "HTTP/1.0 <code> <reason>\r\n" to dst
func AppendStatusLine(dst []byte, code int) []byte {
	dst = append(dst, proto...)
	dst = strconv.AppendInt(dst, int64(code), 10)
	dst = append(dst, ' ')
	dst = append(dst, ReasonPhrase(code)...)
	return append(dst, crlf...)
}

func WriteStatusLine(w *bufio.Writer, code int) error {
	_, err := w.Write(AppendStatusLine(w.AvailableBuffer(), code))
	return err
}

func WriteBlankLine(w *bufio.Writer) error {
	_, err := w.Write(crlf)
	return err
}

// WriteError sends a generic response for error statuses (400+), no headers
func WriteError(w *bufio.Writer, code int) error {
	if err := WriteStatusLine(w, code); err != nil {
		return err
	}
	if err := WriteBlankLine(w); err != nil {
		return err
	}

	b := w.AvailableBuffer()
	b = append(b, "<html><body>\n<h1>"...)
	b = strconv.AppendInt(b, int64(code), 10)
	b = append(b, ' ')
	b = append(b, ReasonPhrase(code)...)
	b = append(b, "</h1>\n</body></html>\n"...)
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.Flush()
}

// WriteRedirect sends 301 to uri with '/' appended,
// the body has a link in case the browser doesn't follow Location
func WriteRedirect(w *bufio.Writer, uri string) error {
	if err := WriteStatusLine(w, 301); err != nil {
		return err
	}

	b := w.AvailableBuffer()
	b = append(b, "Location: "...)
	b = append(b, uri...)
	b = append(b, "/\r\n\r\n"...)
	b = append(b, "<html><body>\n<h1>301 Moved Permanently</h1>\n<p>The document has moved <a href=\""...)
	b = append(b, uri...)
	b = append(b, "/\">here</a>.</p>\n</body></html>\n"...)
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.Flush()
}
