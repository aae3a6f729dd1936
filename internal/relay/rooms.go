package relay

import "sync"

// RoomIndex maps roomID to the set of connections currently joined. Rooms
// materialize on first join and are pruned when their member set empties.
type RoomIndex struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Join adds the connection to the room's member set. Joining twice has no
// additional effect.
func (ri *RoomIndex) Join(roomID string, cl *Client) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	members, ok := ri.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		ri.rooms[roomID] = members
	}
	members[cl] = struct{}{}
}

func (ri *RoomIndex) Leave(roomID string, cl *Client) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	members, ok := ri.rooms[roomID]
	if !ok {
		return
	}

	delete(members, cl)
	if len(members) == 0 {
		delete(ri.rooms, roomID)
	}
}

// MembersOf returns a snapshot of the room's member set at the instant of
// the call. Unknown rooms yield an empty slice, never an error.
func (ri *RoomIndex) MembersOf(roomID string) []*Client {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	members := ri.rooms[roomID]
	snapshot := make([]*Client, 0, len(members))
	for cl := range members {
		snapshot = append(snapshot, cl)
	}
	return snapshot
}

func (ri *RoomIndex) Rooms() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.rooms)
}
