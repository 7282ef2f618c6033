// prefix tree for router logic, it is not acessible from upper packages so use an abstraction: Router
package router

import (
	"strings"
)

// tree node, one per path segment
type node struct {
	prefix  string
	ch      []node  // children in flat area for data locality to not miss the cache
	handler Handler // our handler func
}

// split path to segments /api/handler -> {api, handler};
// a trailing slash gives an empty last segment, so /a and /a/ are different routes
func segments(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// insert node to tree that means link path and handler
func (n *node) insert(path string, h Handler) {
	cur := n
	for _, s := range segments(path) {
		// find child index in flat child array
		idx := -1
		for i := range cur.ch {
			if cur.ch[i].prefix == s {
				idx = i
				break
			}
		}

		// if no target -> make new node
		if idx == -1 {
			cur.ch = append(cur.ch, node{prefix: s})
			idx = len(cur.ch) - 1
		}
		cur = &cur.ch[idx]
	}
	// set node handler
	cur.handler = h
}

// exact match only: every segment must be a node and the last one must have a handler
func (n *node) match(path string) Handler {
	cur := n
	for _, s := range segments(path) {
		var next *node
		for i := range cur.ch {
			if cur.ch[i].prefix == s {
				next = &cur.ch[i]
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur.handler
}
