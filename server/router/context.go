// context is ResponseWriter + Request !
package router

import (
	"bufio"

	"github.com/s00inx/mdbserver/server/engine"
	"github.com/s00inx/mdbserver/server/protocol"
)

// handler func signature, it works only with context;
// returns the status it sent and an error for the local log
type Handler func(c *Context) (int, error)

type Context struct {
	Session *engine.Session
	Req     protocol.Request
}

func NewContext(s *engine.Session, req protocol.Request) *Context {
	return &Context{Session: s, Req: req}
}

// getters
func (c *Context) Method() string {
	return c.Req.Method
}

func (c *Context) URI() string {
	return c.Req.URI
}

func (c *Context) Protocol() string {
	return c.Req.Version
}

// Writer is the response stream of the connection
func (c *Context) Writer() *bufio.Writer {
	return c.Session.W
}

