package relay

import "sync"

// Registry tracks live connections and, per connection, the rooms it has
// joined, so disconnect cleanup is proportional to the rooms that one
// connection was in.
type Registry struct {
	mu          sync.Mutex
	connections map[*Client]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[*Client]map[string]struct{}),
	}
}

func (r *Registry) Add(cl *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[cl]; !ok {
		r.connections[cl] = make(map[string]struct{})
	}
}

// Track records a room membership. Reports false when the connection is no
// longer registered, so a join racing a disconnect cannot resurrect it.
func (r *Registry) Track(cl *Client, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.connections[cl]
	if !ok {
		return false
	}
	rooms[roomID] = struct{}{}
	return true
}

func (r *Registry) InRoom(cl *Client, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.connections[cl]
	if !ok {
		return false
	}
	_, joined := rooms[roomID]
	return joined
}

// Remove discards the connection and returns the rooms it belonged to.
// Idempotent: a second call reports false with no rooms.
func (r *Registry) Remove(cl *Client) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.connections[cl]
	if !ok {
		return nil, false
	}
	delete(r.connections, cl)

	joined := make([]string, 0, len(rooms))
	for roomID := range rooms {
		joined = append(joined, roomID)
	}
	return joined, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}
