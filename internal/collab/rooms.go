package collab

import (
	"sort"
	"sync"
)

// RoomRegistry groups joined connections by document id. Rooms are volatile and
// re-created lazily; an emptied room is pruned.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]User
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[string]User)}
}

// Join adds or replaces the member, creating the room if needed.
func (r *RoomRegistry) Join(documentID, connID string, u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[documentID]
	if !ok {
		room = make(map[string]User)
		r.rooms[documentID] = room
	}
	room[connID] = u
}

// Leave removes the member and returns how many remain.
func (r *RoomRegistry) Leave(documentID, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[documentID]
	if !ok {
		return 0
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, documentID)
		return 0
	}
	return len(room)
}

// Members returns a snapshot ordered by join time so presence lists render stably.
func (r *RoomRegistry) Members(documentID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[documentID]
	out := make([]User, 0, len(room))
	for _, u := range room {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Conns returns the connection ids joined to documentID.
func (r *RoomRegistry) Conns(documentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[documentID]
	out := make([]string, 0, len(room))
	for id := range room {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *RoomRegistry) Contains(documentID, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[documentID][connID]
	return ok
}

// Size is for observability only.
func (r *RoomRegistry) Size(documentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[documentID])
}

// Rooms is the number of non-empty rooms.
func (r *RoomRegistry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Member is one room entry.
type Member struct {
	DocumentID string
	ConnID     string
	User       User
}

// All returns every member of every room, ordered by document then connection.
func (r *RoomRegistry) All() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Member
	for doc, room := range r.rooms {
		for conn, u := range room {
			out = append(out, Member{DocumentID: doc, ConnID: conn, User: u})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].ConnID < out[j].ConnID
	})
	return out
}
