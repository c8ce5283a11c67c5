package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/huddle-rtc/huddle/internal/domain"
)

func TestJoinEmptyRoom(t *testing.T) {
	d := NewDirectory(4)

	existing, err := d.Join("a", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(existing) != 0 {
		t.Errorf("expected empty snapshot for a fresh room, got %v", existing)
	}
	if got := d.Members("r1"); len(got) != 1 {
		t.Errorf("expected 1 member after join, got %d", len(got))
	}
}

func TestJoinSnapshotExcludesJoiner(t *testing.T) {
	d := NewDirectory(4)
	if _, err := d.Join("a", "r1"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Join("b", "r1"); err != nil {
		t.Fatal(err)
	}

	existing, err := d.Join("c", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("expected snapshot {a, b}, got %v", existing)
	}
	seen := map[domain.ClientID]bool{}
	for _, id := range existing {
		seen[id] = true
	}
	if !seen["a"] || !seen["b"] || seen["c"] {
		t.Errorf("snapshot should be exactly {a, b}, got %v", existing)
	}
}

func TestJoinRejectsWhenFull(t *testing.T) {
	d := NewDirectory(4)
	for i := 0; i < 4; i++ {
		id := domain.ClientID(fmt.Sprintf("m%d", i))
		if _, err := d.Join(id, "r1"); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	_, err := d.Join("late", "r1")
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if got := d.Members("r1"); len(got) != 4 {
		t.Errorf("rejected join must not mutate membership, got %d members", len(got))
	}
	if _, ok := d.RoomOf("late"); ok {
		t.Error("rejected client must not be tracked in any room")
	}
}

func TestConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	d := NewDirectory(4)

	const joiners = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	rejected := 0

	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ClientID(fmt.Sprintf("c%d", i))
			_, err := d.Join(id, "busy")
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrRoomFull) {
				rejected++
			} else if err == nil {
				accepted++
			}
		}(i)
	}
	wg.Wait()

	if accepted != 4 {
		t.Errorf("expected exactly 4 accepted joins, got %d", accepted)
	}
	if rejected != joiners-4 {
		t.Errorf("expected %d rejections, got %d", joiners-4, rejected)
	}
	if got := d.Members("busy"); len(got) != 4 {
		t.Errorf("room holds %d members, capacity is 4", len(got))
	}
}

func TestLeaveReportsRemaining(t *testing.T) {
	d := NewDirectory(4)
	d.Join("a", "r1")
	d.Join("b", "r1")
	d.Join("c", "r1")

	room, remaining, ok := d.Leave("a")
	if !ok {
		t.Fatal("expected leave to find the member")
	}
	if room != "r1" {
		t.Errorf("expected room r1, got %s", room)
	}
	if len(remaining) != 2 {
		t.Errorf("expected 2 remaining members, got %v", remaining)
	}
	for _, id := range remaining {
		if id == "a" {
			t.Error("departed member must not appear in remaining set")
		}
	}
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	d := NewDirectory(4)
	if _, _, ok := d.Leave("ghost"); ok {
		t.Error("leaving without being in a room should report false")
	}
}

func TestEmptyRoomIsRemoved(t *testing.T) {
	d := NewDirectory(4)
	d.Join("a", "r1")
	d.Leave("a")

	if rooms := d.Rooms(); len(rooms) != 0 {
		t.Errorf("expected empty room to be garbage-collected, got %v", rooms)
	}

	// Rejoining after collection behaves like a fresh room.
	existing, err := d.Join("b", "r1")
	if err != nil || len(existing) != 0 {
		t.Errorf("expected fresh room semantics, got %v, %v", existing, err)
	}
}

func TestRejoinMovesClient(t *testing.T) {
	d := NewDirectory(4)
	d.Join("a", "r1")
	d.Join("a", "r2")

	if room, _ := d.RoomOf("a"); room != "r2" {
		t.Errorf("expected client to be in r2, got %s", room)
	}
	if rooms := d.Rooms(); len(rooms) != 1 {
		t.Errorf("old room should be gone after move, got %v", rooms)
	}
}

func TestSameRoomRejoinKeepsSoleMember(t *testing.T) {
	d := NewDirectory(4)
	d.Join("a", "r1")

	existing, err := d.Join("a", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(existing) != 0 {
		t.Errorf("rejoin snapshot must exclude the joiner, got %v", existing)
	}
	if got := d.Members("r1"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected a still in r1, Members = %v", got)
	}

	// The next joiner must still see the resident member.
	existing, err = d.Join("b", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(existing) != 1 || existing[0] != "a" {
		t.Errorf("b should see existing member a, got %v", existing)
	}
}

func TestSameRoomRejoinSnapshotExcludesSelf(t *testing.T) {
	d := NewDirectory(4)
	d.Join("a", "r1")
	d.Join("b", "r1")

	existing, err := d.Join("a", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(existing) != 1 || existing[0] != "b" {
		t.Errorf("expected snapshot {b}, got %v", existing)
	}
	if got := d.Members("r1"); len(got) != 2 {
		t.Errorf("rejoin must not change membership, got %v", got)
	}
}

func TestSameRoomRejoinOfFullRoomIsNotRejected(t *testing.T) {
	d := NewDirectory(4)
	for i := 0; i < 4; i++ {
		id := domain.ClientID(fmt.Sprintf("m%d", i))
		if _, err := d.Join(id, "r1"); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	existing, err := d.Join("m0", "r1")
	if err != nil {
		t.Fatalf("a member re-joining its full room must keep its slot, got %v", err)
	}
	if len(existing) != 3 {
		t.Errorf("expected the 3 other members, got %v", existing)
	}
	if got := d.Members("r1"); len(got) != 4 {
		t.Errorf("membership must be unchanged, got %d members", len(got))
	}
}

func TestRoomsListing(t *testing.T) {
	d := NewDirectory(4)
	d.Join("a", "r1")
	d.Join("b", "r1")
	d.Join("c", "r2")

	rooms := d.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	counts := map[domain.RoomID]int{}
	for _, r := range rooms {
		counts[r.ID] = r.MemberCount
	}
	if counts["r1"] != 2 || counts["r2"] != 1 {
		t.Errorf("unexpected member counts: %v", counts)
	}
}
