package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	blockSize = 4096 // size of one disk io block
)

// ErrSourceRead marks a Stream failure on the reading side,
// everything else Stream returns comes from the writer
var ErrSourceRead = errors.New("source read failed")

// blockPool for stream buffers
// so we don't alloc new blocks for every file
var blockPool = sync.Pool{
	New: func() any {
		b := make([]byte, blockSize)
		return &b
	},
}

// Stream copies r to w one block at a time and flushes after every block,
// so the peer sees data as soon as it is read
func Stream(w *bufio.Writer, r io.Reader) (int64, error) {
	bp := blockPool.Get().(*[]byte)
	defer blockPool.Put(bp)
	buf := *bp

	// drop whatever is pending before going block by block
	if err := w.Flush(); err != nil {
		return 0, err
	}

	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return total, err
			}
			if err := w.Flush(); err != nil {
				return total, err
			}
			total += int64(n)
		}

		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("%w: %w", ErrSourceRead, rerr)
		}
	}
}
