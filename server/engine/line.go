package engine

import (
	"bufio"
	"errors"
	"io"
)

// ReadLine reads one line through its '\n' and returns at most max bytes of it;
// the rest of a longer line is consumed and dropped, long reports that.
// A last line without '\n' is returned with nil error, io.EOF comes on the next call.
// The returned slice is a copy and stays valid after further reads.
func ReadLine(r *bufio.Reader, max int) (line []byte, long bool, err error) {
	for {
		frag, rerr := r.ReadSlice('\n')

		// keep what still fits
		if room := max - len(line); room > 0 {
			if len(frag) > room {
				line = append(line, frag[:room]...)
				long = true
			} else {
				line = append(line, frag...)
			}
		} else if len(frag) > 0 {
			long = true
		}

		switch {
		case rerr == nil:
			return line, long, nil
		case errors.Is(rerr, bufio.ErrBufferFull):
			// line is longer than reader buffer, keep going
			continue
		case errors.Is(rerr, io.EOF) && (len(line) > 0 || long):
			return line, long, nil
		default:
			return line, long, rerr
		}
	}
}
