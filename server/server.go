package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/s00inx/mdbserver/server/engine"
	"github.com/s00inx/mdbserver/server/gateway"
	"github.com/s00inx/mdbserver/server/lookup"
	"github.com/s00inx/mdbserver/server/mdb"
	"github.com/s00inx/mdbserver/server/protocol"
	"github.com/s00inx/mdbserver/server/router"
	"github.com/s00inx/mdbserver/server/static"
)

// Run listens on addr:port and hands every connection to cb until ctx is done
func Run(ctx context.Context, addr [4]byte, port int, cb engine.HandleConn) error {
	ln, err := engine.Listen(addr, port)
	if err != nil {
		return err
	}
	return engine.Serve(ctx, ln, cb)
}

// LookupServer answers the lookup line protocol;
// every connection loads its own copy of the database
type LookupServer struct {
	DBPath string
	Log    *slog.Logger
}

func (s *LookupServer) ServeConn(sess *engine.Session) {
	log := s.Log.With("client", sess.RemoteIP())
	log.Info("connection started")
	defer log.Info("connection terminated")

	st, n, err := mdb.LoadFile(s.DBPath)
	if err != nil {
		log.Error("load database", "path", s.DBPath, "err", err)
		return
	}
	defer st.Close()
	log.Debug("database loaded", "records", n)

	if err := lookup.Serve(sess.R, sess.W, st); err != nil {
		log.Warn("connection aborted", "err", err)
	}
}

// HTTPServer serves static files under Root and the lookup gateway
type HTTPServer struct {
	Root string
	Log  *slog.Logger

	r *router.HTTPRouter
}

// NewHTTPServer wires the router: gateway on its path, static files for the rest;
// client is the one upstream lookup connection shared by all requests
func NewHTTPServer(root string, client *lookup.Client, log *slog.Logger) *HTTPServer {
	gw := gateway.New(client)

	r := router.NewHTTPRouter()
	r.Route(gateway.Path, func(c *router.Context) (int, error) {
		return gw.Serve(c.Writer(), c.URI())
	})
	r.Fallback(func(c *router.Context) (int, error) {
		return static.Serve(c.Writer(), root, c.URI())
	})

	return &HTTPServer{Root: root, Log: log, r: r}
}

// ServeConn handles exactly one request and logs it
func (s *HTTPServer) ServeConn(sess *engine.Session) {
	var (
		code int
		err  error
	)

	req, perr := protocol.ReadRequest(sess.R)
	switch {
	case perr == nil:
		code, err = s.r.Serve(req.URI)(router.NewContext(sess, req))
	case errors.Is(perr, protocol.ErrPrematureEOF):
		// socket closed prematurely; nobody to answer
		code = protocol.StatusOf(perr)
	default:
		code = protocol.StatusOf(perr)
		err = protocol.WriteError(sess.W, code)
		s.Log.Debug("bad request", "client", sess.RemoteIP(), "err", perr)
	}

	s.access(sess, req, code, err)
}

// one line per request: ip "GET /uri HTTP/1.0" 200 OK
func (s *HTTPServer) access(sess *engine.Session, req protocol.Request, code int, err error) {
	attrs := []any{
		"client", sess.RemoteIP(),
		"request", req.String(),
		"status", code,
		"reason", protocol.ReasonPhrase(code),
	}
	if err != nil {
		s.Log.Warn("request", append(attrs, "err", err)...)
		return
	}
	s.Log.Info("request", attrs...)
}
