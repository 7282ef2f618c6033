// fixed-width record layout of the database file
package mdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// field widths of the on-disk record, NUL included;
// changing them breaks every existing database file
const (
	NameSize = 16
	MsgSize  = 24

	RecordSize = NameSize + MsgSize
)

// ErrShortRecord means the file ended in the middle of a record
var ErrShortRecord = errors.New("truncated record")

// Record is one name/message pair exactly as stored on disk:
//
//	| name(16) | msg(24) |
//
// both fields are NUL-terminated strings padded with zero bytes
type Record struct {
	Name [NameSize]byte
	Msg  [MsgSize]byte
}

// NewRecord builds a record, cutting name and msg so a NUL always fits
func NewRecord(name, msg string) Record {
	var r Record
	copy(r.Name[:NameSize-1], name)
	copy(r.Msg[:MsgSize-1], msg)
	return r
}

// text before the first NUL
func cstr(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

func (r *Record) NameString() string {
	return string(cstr(r.Name[:]))
}

func (r *Record) MsgString() string {
	return string(cstr(r.Msg[:]))
}

// contains reports whether name or msg holds key
func (r *Record) contains(key []byte) bool {
	return bytes.Contains(cstr(r.Name[:]), key) || bytes.Contains(cstr(r.Msg[:]), key)
}

// decode one record, io.EOF only when nothing was read
func readRecord(r io.Reader, rec *Record) error {
	err := binary.Read(r, binary.LittleEndian, rec)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortRecord
	}
	return err
}

// Write encodes recs in file order
func Write(w io.Writer, recs ...Record) error {
	for i := range recs {
		if err := binary.Write(w, binary.LittleEndian, &recs[i]); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return nil
}
