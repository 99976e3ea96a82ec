package main

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"
)

const roomCodeLength = 4

// RoomDirectory owns every live room, keyed by code. Room lookup and
// creation are serialized here; everything inside a room is guarded by the
// room's own lock.
type RoomDirectory struct {
	mu    sync.Mutex
	cfg   *Config
	bank  *QuestionBank
	rooms map[string]*Room
}

func newRoomDirectory(cfg *Config, bank *QuestionBank) *RoomDirectory {
	return &RoomDirectory{
		cfg:   cfg,
		bank:  bank,
		rooms: make(map[string]*Room),
	}
}

// newRoomCode draws four uppercase letters from the system's CSPRNG.
func newRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	code := make([]byte, roomCodeLength)
	for i, b := range buf {
		code[i] = 'A' + b%26
	}

	return string(code), nil
}

// Create makes a new room under a fresh code.
func (d *RoomDirectory) Create() (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < 100; i++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := d.rooms[code]; taken {
			continue
		}

		room := newRoom(d.cfg, d.bank, code)
		d.rooms[code] = room

		logf(d.cfg, "ROOMS: Created %s (%d active)", code, len(d.rooms))

		return room, nil
	}

	return nil, errors.New("could not allocate a room code")
}

// Get looks up a room by code, case-insensitively.
func (d *RoomDirectory) Get(code string) (*Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[strings.ToUpper(strings.TrimSpace(code))]

	return room, ok
}

// validRoomCode reports whether a code has the generated shape.
func validRoomCode(code string) bool {
	if len(code) != roomCodeLength {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}

	return true
}

// GetOrCreate returns the room under code, claiming the code if it is free.
// Hosts connecting with a code of their own choosing land here.
func (d *RoomDirectory) GetOrCreate(code string) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !validRoomCode(code) {
		return nil, errors.New("room codes are four letters")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if room, ok := d.rooms[code]; ok {
		return room, nil
	}

	room := newRoom(d.cfg, d.bank, code)
	d.rooms[code] = room

	logf(d.cfg, "ROOMS: Claimed %s (%d active)", code, len(d.rooms))

	return room, nil
}

// Remove closes a room and notifies everyone still connected.
func (d *RoomDirectory) Remove(code string, notice SimpleMessage) {
	d.mu.Lock()
	room, ok := d.rooms[code]
	if ok {
		delete(d.rooms, code)
	}
	remaining := len(d.rooms)
	d.mu.Unlock()

	if !ok {
		return
	}

	room.closeAll(notice)

	logf(d.cfg, "ROOMS: Removed %s (%d active)", code, remaining)
}

func (d *RoomDirectory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.rooms)
}

// Reap runs until the context is done, closing rooms with no activity inside
// the timeout window.
func (d *RoomDirectory) Reap(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.reapOnce()
		}
	}
}

func (d *RoomDirectory) reapOnce() {
	cutoff := time.Now().Add(-d.cfg.roomTimeout)

	d.mu.Lock()
	var stale []string
	for code, room := range d.rooms {
		if room.idleSince().Before(cutoff) {
			stale = append(stale, code)
		}
	}
	d.mu.Unlock()

	for _, code := range stale {
		logf(d.cfg, "ROOMS: Reaping idle room %s", code)
		d.Remove(code, SimpleMessage{Type: "room_closed", Message: "Room closed due to inactivity."})
	}
}

// closeAll notifies every connection and tears the handles down. Queued
// messages are flushed by the write pumps before the sockets close.
func (r *Room) closeAll(notice SimpleMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastLocked(notice)

	if r.host != nil {
		r.host.close()
		r.host = nil
		r.hostConnected = false
	}
	for _, p := range r.players {
		if p.client != nil {
			p.client.close()
			p.client = nil
		}
	}
}
