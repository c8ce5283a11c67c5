package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/domain"
)

// ErrRoomFull is returned by Join when the room is already at capacity.
// Membership is left untouched in that case.
var ErrRoomFull = errors.New("room full")

// Directory is the threadsafe in-memory room membership map. Rooms are
// created on first join and deleted when their last member leaves.
// Capacity check and insertion happen under one lock, so two concurrent
// joins can never both slip into the last free slot.
type Directory struct {
	mu       sync.Mutex
	capacity int
	rooms    map[domain.RoomID]map[domain.ClientID]struct{}
	byClient map[domain.ClientID]domain.RoomID
}

func NewDirectory(capacity int) *Directory {
	return &Directory{
		capacity: capacity,
		rooms:    make(map[domain.RoomID]map[domain.ClientID]struct{}),
		byClient: make(map[domain.ClientID]domain.RoomID),
	}
}

// Join adds id to the room and returns the members that were present
// immediately before this join. A client belongs to at most one room;
// joining a different room silently removes it from the old one, and
// re-joining its current room is a no-op that returns the same snapshot
// a fresh joiner would get.
func (d *Directory) Join(id domain.ClientID, room domain.RoomID) ([]domain.ClientID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[room]

	// A member re-joining its own room keeps its slot: no removal, so
	// the room can never be garbage-collected out from under the insert,
	// and a sole member re-joining cannot orphan itself.
	if prev, in := d.byClient[id]; in && prev == room {
		existing := make([]domain.ClientID, 0, len(members)-1)
		for m := range members {
			if m != id {
				existing = append(existing, m)
			}
		}
		log.Info().Str("module", "core.directory").Str("room", string(room)).Str("client", string(id)).Msg("member re-joined own room")
		return existing, nil
	}

	if ok && len(members) >= d.capacity {
		log.Info().Str("module", "core.directory").Str("room", string(room)).Str("client", string(id)).Msg("join rejected: room full")
		return nil, ErrRoomFull
	}
	if !ok {
		members = make(map[domain.ClientID]struct{})
		d.rooms[room] = members
	}

	// prev != room here, so removing from the old room cannot touch the
	// member set we are about to insert into.
	if prev, in := d.byClient[id]; in {
		d.removeLocked(id, prev)
	}

	existing := make([]domain.ClientID, 0, len(members))
	for m := range members {
		existing = append(existing, m)
	}

	members[id] = struct{}{}
	d.byClient[id] = room
	log.Info().Str("module", "core.directory").Str("room", string(room)).Str("client", string(id)).Int("members", len(members)).Msg("member joined")
	return existing, nil
}

// Leave removes id from whatever room it is in and reports the room and
// the members that remain, so the caller can fan out a disconnect notice.
// Leaving while not in any room is a no-op.
func (d *Directory) Leave(id domain.ClientID) (domain.RoomID, []domain.ClientID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.byClient[id]
	if !ok {
		return "", nil, false
	}
	d.removeLocked(id, room)

	remaining := make([]domain.ClientID, 0, len(d.rooms[room]))
	for m := range d.rooms[room] {
		remaining = append(remaining, m)
	}
	log.Info().Str("module", "core.directory").Str("room", string(room)).Str("client", string(id)).Int("remaining", len(remaining)).Msg("member left")
	return room, remaining, true
}

// removeLocked deletes id from room and garbage-collects the room if it
// became empty. Caller holds d.mu.
func (d *Directory) removeLocked(id domain.ClientID, room domain.RoomID) {
	delete(d.byClient, id)
	if members, ok := d.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(d.rooms, room)
			log.Info().Str("module", "core.directory").Str("room", string(room)).Msg("empty room removed")
		}
	}
}

// Members returns a snapshot of the room's current membership.
func (d *Directory) Members(room domain.RoomID) []domain.ClientID {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.ClientID, 0, len(d.rooms[room]))
	for m := range d.rooms[room] {
		out = append(out, m)
	}
	return out
}

// RoomOf reports which room the client currently belongs to.
func (d *Directory) RoomOf(id domain.ClientID) (domain.RoomID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.byClient[id]
	return room, ok
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

// Rooms lists all active rooms, for the read-only API.
func (d *Directory) Rooms() []RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, members := range d.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}
