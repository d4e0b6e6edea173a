package collab

import "sync"

// ConnectionRegistry maps a live connection to the user and document it represents.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]Connection
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]Connection)}
}

// Register inserts or replaces the mapping for connID.
func (r *ConnectionRegistry) Register(connID string, u User, documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = Connection{ConnID: connID, User: u, DocumentID: documentID}
}

func (r *ConnectionRegistry) Lookup(connID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

// Unregister is idempotent.
func (r *ConnectionRegistry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
