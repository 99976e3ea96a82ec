package main

import (
	"time"

	"github.com/gorilla/websocket"
)

// client is one outbound websocket handle. Messages are queued on the send
// channel and drained by writePump; a full or closed channel is treated as a
// disconnect by the caller.
type client struct {
	conn *websocket.Conn
	send chan any
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan any, 16),
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// trySend queues a message without blocking. False means the client is not
// keeping up (or gone) and should be dropped.
func (c *client) trySend(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Player is one joined participant. The record survives disconnects (only
// the client handle is cleared) so a rejoining player keeps their score.
type Player struct {
	ID         string
	Name       string
	Score      int
	Streak     int
	Wager      int
	TeamID     string
	Answer     Answer
	AnsweredAt time.Time

	client *client
}

func newPlayer(id, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
	}
}

func (p *Player) connected() bool {
	return p.client != nil
}

func (p *Player) resetRound() {
	p.Answer = Answer{}
	p.AnsweredAt = time.Time{}
	p.Wager = 0
}

// Team groups players for team scoring and bowl mode.
type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Preset palette cycled when the host creates teams without a name or color.
var (
	teamNames = []string{
		"Red Team", "Blue Team", "Green Team", "Orange Team",
		"Purple Team", "Teal Team", "Pink Team", "Cyan Team",
	}
	teamColors = []string{
		"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
		"#9b59b6", "#1abc9c", "#e91e63", "#00bcd4",
	}
)
