package lookup

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/s00inx/mdbserver/server/mdb"
)

func newStore(t testing.TB, recs ...mdb.Record) *mdb.Store {
	t.Helper()
	var buf bytes.Buffer
	if err := mdb.Write(&buf, recs...); err != nil {
		t.Fatal(err)
	}
	st, _, err := mdb.Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestKey(t *testing.T) {
	tests := []struct {
		line, want string
	}{
		{"hello\n", "hello"},
		{"hi\n", "hi"},
		{"hi\r\n", "hi"},
		{"abcd\r\n", "abcd"},
		{"helloworld\n", "hello"},
		{"\n", ""},
		{"\r\n", ""},
		{"ab\x00cd\n", "ab"},
		{"tail", "tail"},
	}

	for _, tt := range tests {
		if got := Key([]byte(tt.line)); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestFormatRow(t *testing.T) {
	got := FormatRow(7, mdb.NewRecord("jae", "hi there"))
	if want := "   7: {jae} said {hi there}\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestServe(t *testing.T) {
	st := newStore(t, mdb.NewRecord("A", "hello"), mdb.NewRecord("B", "world hello"), mdb.NewRecord("C", "bye"))

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "two hits",
			in:   "hello\n",
			want: "   1: {A} said {hello}\n   2: {B} said {world hello}\n\n",
		},
		{
			name: "numbering over all records",
			in:   "bye\n",
			want: "   3: {C} said {bye}\n\n",
		},
		{
			name: "zero hits is one blank line",
			in:   "nope\n",
			want: "\n",
		},
		{
			name: "several queries on one connection",
			in:   "bye\r\nnope\n",
			want: "   3: {C} said {bye}\n\n\n",
		},
		{
			name: "long line consumed whole",
			in:   strings.Repeat("z", 5000) + "\nbye\n",
			want: "\n   3: {C} said {bye}\n\n",
		},
		{
			name: "last line without newline",
			in:   "C",
			want: "   3: {C} said {bye}\n\n",
		},
		{
			name: "no input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := Serve(bufio.NewReader(strings.NewReader(tt.in)), bufio.NewWriter(&out), st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("got %q, want %q", out.String(), tt.want)
			}
		})
	}
}

// serveOnPipe runs the server side of the protocol on a fresh pipe per dial
func serveOnPipe(st *mdb.Store, dials *atomic.Int32) func() (net.Conn, error) {
	return func() (net.Conn, error) {
		dials.Add(1)
		cli, srv := net.Pipe()
		go func() {
			defer srv.Close()
			Serve(bufio.NewReader(srv), bufio.NewWriter(srv), st)
		}()
		return cli, nil
	}
}

func collect(c *Client, key string) ([]string, error) {
	var lines []string
	err := c.Lookup(key, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	return lines, err
}

func TestClientLookup(t *testing.T) {
	st := newStore(t, mdb.NewRecord("A", "hello"), mdb.NewRecord("B", "world hello"))
	var dials atomic.Int32
	c := NewClient(serveOnPipe(st, &dials))
	defer c.Close()

	lines, err := collect(c, "hello")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"   1: {A} said {hello}\n", "   2: {B} said {world hello}\n", "\n"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", lines, want)
	}

	lines, err = collect(c, "zzz")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "\n" {
		t.Errorf("empty result should be only the terminator, got %q", lines)
	}

	if n := dials.Load(); n != 1 {
		t.Errorf("connection not reused, %d dials", n)
	}
}

func TestClientDrainsAfterCallbackError(t *testing.T) {
	st := newStore(t, mdb.NewRecord("A", "hello"), mdb.NewRecord("B", "world hello"))
	var dials atomic.Int32
	c := NewClient(serveOnPipe(st, &dials))
	defer c.Close()

	boom := errors.New("browser went away")
	calls := 0
	err := c.Lookup("hello", func(line []byte) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("callback called %d times after failing", calls)
	}

	// next query must see its own response, not leftovers
	lines, err := collect(c, "world")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "   2: {B} said {world hello}\n" {
		t.Errorf("stream desynchronized: %q", lines)
	}
	if dials.Load() != 1 {
		t.Error("drained connection should be reused")
	}
}

func TestClientUpstreamClosed(t *testing.T) {
	var dials atomic.Int32
	c := NewClient(func() (net.Conn, error) {
		dials.Add(1)
		cli, srv := net.Pipe()
		go func() {
			r := bufio.NewReader(srv)
			r.ReadString('\n')
			srv.Write([]byte("   1: {A} said {hello}\n"))
			srv.Close()
		}()
		return cli, nil
	})
	defer c.Close()

	for range 2 {
		lines, err := collect(c, "hello")
		if !errors.Is(err, ErrUpstreamClosed) {
			t.Fatalf("expected ErrUpstreamClosed, got %v", err)
		}
		if len(lines) != 1 {
			t.Errorf("expected the one row before EOF, got %q", lines)
		}
	}
	if dials.Load() != 2 {
		t.Errorf("broken connection should be redialed, %d dials", dials.Load())
	}
}

func TestClientLongLine(t *testing.T) {
	long := strings.Repeat("x", 1500)
	c := NewClient(func() (net.Conn, error) {
		cli, srv := net.Pipe()
		go func() {
			defer srv.Close()
			r := bufio.NewReader(srv)
			for {
				if _, err := r.ReadString('\n'); err != nil {
					return
				}
				if _, err := srv.Write([]byte(long + "\n   2: {B} said {bye}\n\n")); err != nil {
					return
				}
			}
		}()
		return cli, nil
	})
	defer c.Close()

	for range 2 {
		lines, err := collect(c, "x")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{long[:respLineMax] + "\n", "   2: {B} said {bye}\n", "\n"}
		if strings.Join(lines, "|") != strings.Join(want, "|") {
			t.Errorf("got %q", lines)
		}
	}
}

func TestClientDialError(t *testing.T) {
	refused := errors.New("connection refused")
	c := NewClient(func() (net.Conn, error) { return nil, refused })

	err := c.Lookup("x", func([]byte) error {
		t.Error("callback called without a connection")
		return nil
	})
	if !errors.Is(err, refused) {
		t.Errorf("expected dial error, got %v", err)
	}
}

func TestClientConcurrentLookups(t *testing.T) {
	st := newStore(t,
		mdb.NewRecord("A", "hello"),
		mdb.NewRecord("B", "bye"),
		mdb.NewRecord("C", "ciao"),
	)
	var dials atomic.Int32
	c := NewClient(serveOnPipe(st, &dials))
	defer c.Close()

	want := map[string]string{
		"hello": "   1: {A} said {hello}\n",
		"bye":   "   2: {B} said {bye}\n",
		"ciao":  "   3: {C} said {ciao}\n",
	}
	keys := []string{"hello", "bye", "ciao"}

	var wg sync.WaitGroup
	errs := make(chan error, 60)
	for i := range 60 {
		key := keys[i%len(keys)]
		wg.Go(func() {
			lines, err := collect(c, key)
			if err != nil {
				errs <- err
				return
			}
			if len(lines) != 2 || lines[0] != want[key] || lines[1] != "\n" {
				errs <- fmt.Errorf("key %q got %q", key, lines)
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if n := dials.Load(); n != 1 {
		t.Errorf("shared connection redialed, %d dials", n)
	}
}

func BenchmarkServe(b *testing.B) {
	var recs []mdb.Record
	for range 1000 {
		recs = append(recs, mdb.NewRecord("user", "some message"))
	}
	st := newStore(b, recs...)
	in := []byte("zzz\n")

	b.ReportAllocs()
	for b.Loop() {
		var out bytes.Buffer
		Serve(bufio.NewReader(bytes.NewReader(in)), bufio.NewWriter(&out), st)
	}
}
