package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Hosts and players connect from arbitrary origins (phones on the
	// venue network, projector machines); the room code is the credential.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const socketReadLimit = 1 << 16

// attachHost wires a new host connection, replacing any previous one, and
// replies with the full room state so a reconnecting host can resume.
func (r *Room) attachHost(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != nil {
		r.host.close()
	}
	r.host = c
	r.hostConnected = true
	r.touchLocked()

	state := r.fullStateLocked()
	if state.CurrentQuestion != nil {
		if q := r.currentQuestionLocked(); q != nil && q.Type != questionPoll && q.Type != questionOpenPoll {
			state.CurrentQuestion.Correct = q.correctValue()
		}
	}
	r.sendHostLocked(RoomStateMessage{Type: "room_state", FullState: state})

	for _, p := range r.players {
		r.sendPlayerLocked(p, SimpleMessage{Type: "host_connected"})
	}
}

func (r *Room) detachHost(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != c {
		// Already replaced by a newer connection.
		return
	}
	r.host = nil
	r.hostConnected = false
	c.close()
	r.touchLocked()

	for _, p := range r.players {
		r.sendPlayerLocked(p, SimpleMessage{Type: "host_disconnected"})
	}
}

// attachPlayer wires a player connection and replies with the join
// handshake. The player record must already exist.
func (r *Room) attachPlayer(player *Player, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if player.client != nil {
		player.client.close()
	}
	player.client = c
	r.touchLocked()

	var team *Team
	if player.TeamID != "" {
		team = r.teams[player.TeamID]
	}

	joined := JoinedMessage{
		Type:          "joined",
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		RoomCode:      r.code,
		State:         r.state,
		HostConnected: r.hostConnected,
		Score:         player.Score,
		TeamID:        player.TeamID,
		Team:          team,
		MinigameState: r.minigame,
	}
	if r.state == stateQuestion {
		joined.CurrentQuestion = r.questionSnapshotLocked(player)
		joined.AlreadyAnswered = player.Answer.isSet()
	}
	r.sendPlayerLocked(player, joined)

	r.sendHostLocked(RoomStateMessage{Type: "room_state", FullState: r.fullStateLocked()})
}

func (r *Room) detachPlayer(player *Player, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if player.client != c {
		return
	}
	player.client = nil
	c.close()
	r.touchLocked()

	r.broadcastExceptLocked(PlayerDisconnectedMessage{
		Type:        "player_disconnected",
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		PlayerCount: len(r.players),
	}, player.ID)
}

// upgradeAndReject upgrades just far enough to deliver an error message, so
// browser clients see why the connection failed.
func upgradeAndReject(w http.ResponseWriter, req *http.Request, message string) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	_ = conn.WriteJSON(errorMsg(message))
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(time.Second))
	_ = conn.Close()
}

// serveHostSocket handles /ws/host/:code. The connection requires a valid
// admin session token; connecting to an unused code claims it.
func serveHostSocket(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		token := req.URL.Query().Get("token")
		admin, ok := admins.SessionAdmin(token)
		if !ok {
			upgradeAndReject(w, req, "Invalid or expired session.")

			return
		}

		room, err := directory.GetOrCreate(params.ByName("code"))
		if err != nil {
			upgradeAndReject(w, req, err.Error())

			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logf(cfg, "WS: Host upgrade failed for %s: %v", realIP(req), err)

			return
		}
		conn.SetReadLimit(socketReadLimit)

		c := newClient(conn)
		go c.writePump()

		admins.SetHosting(token, room.code)
		room.attachHost(c)
		defer room.detachHost(c)

		logf(cfg, "WS: Host %s connected to %s from %s", admin, room.code, realIP(req))

		for {
			var msg HostMessage
			if err := conn.ReadJSON(&msg); err != nil {
				logf(cfg, "WS: Host %s left %s (%v)", admin, room.code, err)

				return
			}
			room.handleHostMessage(msg)
		}
	}
}

// servePlayerSocket handles /ws/player/:code/:player. The player must have
// joined over HTTP first; reconnects reuse the same player id.
func servePlayerSocket(cfg *Config, directory *RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		room, ok := directory.Get(params.ByName("code"))
		if !ok {
			upgradeAndReject(w, req, "Room not found.")

			return
		}

		player, ok := room.lookupPlayer(params.ByName("player"))
		if !ok {
			upgradeAndReject(w, req, "Player not found. Join the room first.")

			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logf(cfg, "WS: Player upgrade failed for %s: %v", realIP(req), err)

			return
		}
		conn.SetReadLimit(socketReadLimit)

		c := newClient(conn)
		go c.writePump()

		room.attachPlayer(player, c)
		defer room.detachPlayer(player, c)

		logf(cfg, "WS: Player %s connected to %s from %s", player.Name, room.code, realIP(req))

		for {
			var msg PlayerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			room.handlePlayerMessage(player, msg)
		}
	}
}

func (r *Room) lookupPlayer(id string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[id]

	return player, ok
}
