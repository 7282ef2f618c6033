package mdb

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDB(t testing.TB, recs ...Record) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, recs...); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "mdb")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecordLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, NewRecord("jae", "hi")); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	if len(raw) != RecordSize {
		t.Fatalf("record takes %d bytes, want %d", len(raw), RecordSize)
	}
	if string(raw[:3]) != "jae" || raw[3] != 0 {
		t.Errorf("name field misplaced: %q", raw[:NameSize])
	}
	if string(raw[NameSize:NameSize+2]) != "hi" {
		t.Errorf("msg field misplaced: %q", raw[NameSize:])
	}
}

func TestNewRecordTruncates(t *testing.T) {
	r := NewRecord("a-very-long-name-indeed", "a message that does not fit here")
	if got := r.NameString(); len(got) != NameSize-1 {
		t.Errorf("name %q not cut to %d", got, NameSize-1)
	}
	if got := r.MsgString(); len(got) != MsgSize-1 {
		t.Errorf("msg %q not cut to %d", got, MsgSize-1)
	}
}

func TestRoundTrip(t *testing.T) {
	want := []Record{
		NewRecord("alice", "hello"),
		NewRecord("bob", "world hello"),
		NewRecord("carol", ""),
	}
	path := writeDB(t, want...)

	st, n, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if n != len(want) || st.Len() != len(want) {
		t.Fatalf("loaded %d records, want %d", n, len(want))
	}
	for i, got := range st.Records() {
		if got != want[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got, want[i])
		}
	}
}

func TestLoadTwiceIsEqual(t *testing.T) {
	path := writeDB(t, NewRecord("A", "hello"), NewRecord("B", "world hello"))

	a, _, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	ra, rb := a.Records(), b.Records()
	if len(ra) != len(rb) {
		t.Fatalf("lengths differ: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		if ra[i] != rb[i] {
			t.Errorf("record %d differs", i)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		wantN   int
		wantErr error
	}{
		{"empty file", nil, 0, nil},
		{"one record", make([]byte, RecordSize), 1, nil},
		{"partial record", make([]byte, RecordSize+3), 0, ErrShortRecord},
		{"only partial", make([]byte, 7), 0, ErrShortRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, n, err := Load(bytes.NewReader(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if st != nil {
					t.Error("store returned on failed load")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.wantN {
				t.Errorf("loaded %d, want %d", n, tt.wantN)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	st, _, err := Load(bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	st.recs = []Record{
		NewRecord("A", "hello"),
		NewRecord("C", "nothing"),
		NewRecord("B", "world hello"),
		NewRecord("hello", "name hit"),
	}

	type hit struct {
		n    int
		name string
	}
	tests := []struct {
		key  string
		want []hit
	}{
		{"hello", []hit{{1, "A"}, {3, "B"}, {4, "hello"}}},
		{"Hello", nil},
		{"zzz", nil},
		{"", []hit{{1, "A"}, {2, "C"}, {3, "B"}, {4, "hello"}}},
		{"ing", []hit{{2, "C"}}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var got []hit
			for n, rec := range st.Search(tt.key) {
				got = append(got, hit{n, rec.NameString()})
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("hit %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSearchStopsEarly(t *testing.T) {
	st := &Store{recs: []Record{NewRecord("a", "x"), NewRecord("b", "x"), NewRecord("c", "x")}}
	seen := 0
	for range st.Search("x") {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("iteration did not stop, saw %d", seen)
	}
}

func TestCloseSafe(t *testing.T) {
	var nilStore *Store
	nilStore.Close()

	st := &Store{}
	st.Close()
	st.Close()

	st = &Store{recs: []Record{NewRecord("a", "b")}}
	st.Close()
	if st.Len() != 0 {
		t.Error("records survived Close")
	}
	for range st.Search("") {
		t.Error("closed store yielded a record")
	}
}

func BenchmarkSearch(b *testing.B) {
	st := &Store{}
	for i := range 10000 {
		st.recs = append(st.recs, NewRecord("user", string(rune('a'+i%26))+" said something"))
	}

	b.ReportAllocs()
	for b.Loop() {
		for range st.Search("zzz") {
		}
	}
}
