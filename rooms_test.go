package main

import (
	"strings"
	"testing"
	"time"
)

func testDirectory(t *testing.T) *RoomDirectory {
	t.Helper()

	cfg := testConfig(t)
	bank, err := newQuestionBank(cfg)
	if err != nil {
		t.Fatalf("newQuestionBank: %v", err)
	}

	return newRoomDirectory(cfg, bank)
}

func TestRoomCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newRoomCode()
		if err != nil {
			t.Fatalf("newRoomCode: %v", err)
		}
		if len(code) != roomCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), roomCodeLength)
		}
		for _, r := range code {
			if r < 'A' || r > 'Z' {
				t.Fatalf("code %q contains %q, want A-Z only", code, r)
			}
		}
	}
}

func TestDirectoryCreateAndGet(t *testing.T) {
	d := testDirectory(t)

	room, err := d.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, ok := d.Get(room.Code()); !ok {
		t.Fatal("created room not found")
	}
	if _, ok := d.Get(strings.ToLower(room.Code())); !ok {
		t.Fatal("lookup should be case-insensitive")
	}
	if _, ok := d.Get(" " + room.Code() + " "); !ok {
		t.Fatal("lookup should trim whitespace")
	}
	if _, ok := d.Get("????"); ok {
		t.Fatal("unknown code resolved")
	}
	if d.Count() != 1 {
		t.Fatalf("Count = %d, want 1", d.Count())
	}
}

func TestGetOrCreateClaimsCode(t *testing.T) {
	d := testDirectory(t)

	room, err := d.GetOrCreate("abcd")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if room.Code() != "ABCD" {
		t.Fatalf("claimed code %q, want ABCD", room.Code())
	}

	again, err := d.GetOrCreate("ABCD")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if again != room {
		t.Fatal("same code resolved to a different room")
	}

	if _, err := d.GetOrCreate("AB1!"); err == nil {
		t.Fatal("malformed code accepted")
	}
	if _, err := d.GetOrCreate("TOOLONG"); err == nil {
		t.Fatal("overlong code accepted")
	}
}

func TestDirectoryCodesAreUnique(t *testing.T) {
	d := testDirectory(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		room, err := d.Create()
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[room.Code()] {
			t.Fatalf("duplicate code %q", room.Code())
		}
		seen[room.Code()] = true
	}
}

func TestReaperRemovesIdleRooms(t *testing.T) {
	d := testDirectory(t)

	idle, err := d.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	active, err := d.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	idle.mu.Lock()
	idle.lastActivity = time.Now().Add(-time.Hour)
	idle.mu.Unlock()

	d.reapOnce()

	if _, ok := d.Get(idle.Code()); ok {
		t.Fatal("idle room survived the reaper")
	}
	if _, ok := d.Get(active.Code()); !ok {
		t.Fatal("active room was reaped")
	}
}

func TestRemoveNotifiesPlayers(t *testing.T) {
	d := testDirectory(t)

	room, err := d.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	player, err := room.AddPlayer("Alice")
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}

	c := fakeClient()
	room.mu.Lock()
	player.client = c
	room.mu.Unlock()

	d.Remove(room.Code(), SimpleMessage{Type: "room_closed", Message: "Room closed due to inactivity."})

	var got *SimpleMessage
	for msg := range c.send {
		if simple, ok := msg.(SimpleMessage); ok && simple.Type == "room_closed" {
			got = &simple

			break
		}
	}
	if got == nil {
		t.Fatal("player never received room_closed")
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if player.client != nil {
		t.Fatal("client handle not cleared")
	}
}
