package server

import (
	"sync"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// session binds one opaque identifier to one dispatch context. The context
// never outlives the session and is never shared with another one.
type session struct {
	id  string
	mcp *mcpserver.MCPServer
}

// sessionTable is the arena of open sessions: a flat mapping from generated
// identifier to dispatch context. Creation inserts, teardown deletes, and an
// identifier that was removed can never route again. Sessions live until
// they are explicitly closed or the process exits.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[string]*session)}
}

// create registers a fresh dispatch context under a new uuid handle.
func (t *sessionTable) create(mcp *mcpserver.MCPServer) *session {
	sess := &session{id: uuid.NewString(), mcp: mcp}
	t.mu.Lock()
	t.sessions[sess.id] = sess
	t.mu.Unlock()
	return sess
}

func (t *sessionTable) get(id string) (*session, bool) {
	t.mu.RLock()
	sess, ok := t.sessions[id]
	t.mu.RUnlock()
	return sess, ok
}

// remove tears down a session. Reports whether the id was open.
func (t *sessionTable) remove(id string) bool {
	t.mu.Lock()
	_, ok := t.sessions[id]
	delete(t.sessions, id)
	t.mu.Unlock()
	return ok
}

func (t *sessionTable) len() int {
	t.mu.RLock()
	n := len(t.sessions)
	t.mu.RUnlock()
	return n
}
