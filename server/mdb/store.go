package mdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// Store is the in-memory database of one connection,
// read-only after Load
type Store struct {
	recs []Record
}

// Load reads records until a clean end of data,
// any partial record or read failure fails the whole load
func Load(r io.Reader) (*Store, int, error) {
	br := bufio.NewReader(r)
	st := &Store{}

	for {
		var rec Record
		err := readRecord(br, &rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("load record %d: %w", len(st.recs), err)
		}
		st.recs = append(st.recs, rec)
	}

	return st, len(st.recs), nil
}

// LoadFile opens path and loads it
func LoadFile(path string) (*Store, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	return Load(f)
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.recs)
}

// Records returns a copy in file order
func (s *Store) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	return out
}

// Search yields every record whose name or msg contains key,
// paired with its 1-based position among all records
func (s *Store) Search(key string) iter.Seq2[int, Record] {
	k := []byte(key)
	return func(yield func(int, Record) bool) {
		if s == nil {
			return
		}
		for i := range s.recs {
			if !s.recs[i].contains(k) {
				continue
			}
			if !yield(i+1, s.recs[i]) {
				return
			}
		}
	}
}

// Close drops all records; safe on empty and nil stores
func (s *Store) Close() {
	if s == nil {
		return
	}
	clear(s.recs)
	s.recs = nil
}
