package main

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room lifecycle states.
const (
	stateLobby    = "lobby"
	stateQuestion = "question"
	stateReveal   = "reveal"
	stateFinished = "finished"
	stateMinigame = "minigame"
)

// Game modes.
const (
	modeClassic = "classic"
	modeBowl    = "bowl"
)

const (
	maxNameLength           = 20
	defaultNumQuestions     = 10
	startCountdown          = 3 * time.Second
	nextQuestionDelay       = time.Second
	defaultMinigameDuration = 30
)

var (
	errGameInProgress = errors.New("game already in progress")
	errNameTaken      = errors.New("name already taken")
	errEmptyName      = errors.New("name cannot be empty")
	errTeamNotFound   = errors.New("team not found")
	errPlayerNotFound = errors.New("player not found")
)

// Room is one quiz session. All mutable state is guarded by mu; methods with
// the Locked suffix assume the caller holds it. Outbound messages are queued
// on per-client channels while the lock is held, never written inline.
type Room struct {
	mu   sync.Mutex
	cfg  *Config
	bank *QuestionBank

	code         string
	state        string
	createdAt    time.Time
	lastActivity time.Time

	host          *client
	hostConnected bool

	players map[string]*Player

	questions       []*Question
	currentIdx      int
	questionStart   time.Time
	customTimeLimit *int

	teamMode bool
	teams    map[string]*Team
	gameMode string

	bowl bowlState

	minigame      *MinigameState
	minigameSubs  map[string]MinigameSubmission
	previousState string

	// epoch invalidates deferred timers across resets and restarts.
	epoch int
}

func newRoom(cfg *Config, bank *QuestionBank, code string) *Room {
	now := time.Now()

	return &Room{
		cfg:          cfg,
		bank:         bank,
		code:         code,
		state:        stateLobby,
		createdAt:    now,
		lastActivity: now,
		players:      make(map[string]*Player),
		currentIdx:   -1,
		teams:        make(map[string]*Team),
		gameMode:     modeClassic,
		minigameSubs: make(map[string]MinigameSubmission),
	}
}

func (r *Room) touchLocked() {
	r.lastActivity = time.Now()
}

// Snapshot is the state view served over HTTP. Question snapshots never
// include the correct answer.
func (r *Room) Snapshot() FullState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.fullStateLocked()
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastActivity
}

// ─────────────────────────── Delivery ─────────────────────────── //

// sendHostLocked queues a message for the host, clearing the handle if the
// host is gone or not keeping up.
func (r *Room) sendHostLocked(msg any) {
	if r.host == nil {
		return
	}
	if !r.host.trySend(msg) {
		r.host.close()
		r.host = nil
		r.hostConnected = false
	}
}

// sendPlayerLocked queues a message for one player. A failed send drops the
// connection but keeps the player record for reconnects.
func (r *Room) sendPlayerLocked(p *Player, msg any) {
	if p.client == nil {
		return
	}
	if !p.client.trySend(msg) {
		p.client.close()
		p.client = nil
	}
}

// broadcastLocked queues a message for the host and every connected player.
func (r *Room) broadcastLocked(msg any) {
	r.broadcastExceptLocked(msg, "")
}

func (r *Room) broadcastExceptLocked(msg any, excludeID string) {
	r.sendHostLocked(msg)
	for _, p := range r.players {
		if p.ID == excludeID {
			continue
		}
		r.sendPlayerLocked(p, msg)
	}
}

// ─────────────────────────── Views ─────────────────────────── //

func (r *Room) playersInfoLocked() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		infos = append(infos, PlayerInfo{ID: p.ID, Name: p.Name, TeamID: p.TeamID})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}

func (r *Room) lobbyStateLocked() RoomState {
	return RoomState{
		RoomCode:      r.code,
		State:         r.state,
		Players:       r.playersInfoLocked(),
		PlayerCount:   len(r.players),
		TeamMode:      r.teamMode,
		Teams:         r.teams,
		GameMode:      r.gameMode,
		MinigameState: r.minigame,
	}
}

func (r *Room) fullStateLocked() FullState {
	state := FullState{
		RoomState:     r.lobbyStateLocked(),
		HostConnected: r.hostConnected,
	}

	if r.teamMode {
		state.TeamLeaderboard = r.teamLeaderboardLocked()
	}

	if r.gameMode == modeBowl && r.state == stateQuestion {
		state.BowlPhase = r.bowl.phase
		state.AwaitingJudge = r.bowl.awaitingJudgment
		state.StealEligible = r.bowl.eligibleTeams()
		if winner, ok := r.players[r.bowl.buzzWinner]; ok {
			state.BuzzWinner = winner.Name
			state.BuzzTeam = winner.TeamID
		}
	}

	if r.state == stateQuestion && r.currentQuestionLocked() != nil {
		state.CurrentQuestion = r.questionSnapshotLocked(nil)
	}

	return state
}

func (r *Room) currentQuestionLocked() *Question {
	if r.currentIdx < 0 || r.currentIdx >= len(r.questions) {
		return nil
	}

	return r.questions[r.currentIdx]
}

// displayLimitLocked is the countdown shown to clients. Bowl rounds are
// buzzer-driven and show no timer; zero means wait-for-all.
func (r *Room) displayLimitLocked(q *Question) int {
	if r.gameMode == modeBowl {
		return 0
	}
	if r.customTimeLimit != nil {
		return *r.customTimeLimit
	}

	return q.TimeLimit
}

func (r *Room) questionSnapshotLocked(p *Player) *QuestionSnapshot {
	q := r.currentQuestionLocked()
	if q == nil {
		return nil
	}

	limit := r.displayLimitLocked(q)
	snapshot := &QuestionSnapshot{
		QuestionType: q.Type,
		QuestionNum:  r.currentIdx + 1,
		Total:        len(r.questions),
		Question:     q.Prompt,
		TimeLimit:    limit,
		WaitForAll:   limit == 0 && r.gameMode != modeBowl,
		Answers:      q.displayAnswers(),
	}
	if p != nil && q.Type == questionWager {
		score := p.Score
		snapshot.PlayerScore = &score
	}

	return snapshot
}

func (r *Room) leaderboardLocked() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(r.players))
	for _, p := range r.players {
		entry := LeaderboardEntry{
			ID:     p.ID,
			Name:   p.Name,
			Score:  p.Score,
			Streak: p.Streak,
		}
		if r.teamMode && p.TeamID != "" {
			if team, ok := r.teams[p.TeamID]; ok {
				entry.TeamID = team.ID
				entry.TeamName = team.Name
				entry.TeamColor = team.Color
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}

		return entries[i].Name < entries[j].Name
	})

	return entries
}

func (r *Room) teamLeaderboardLocked() []TeamStanding {
	standings := make([]TeamStanding, 0, len(r.teams))
	for _, team := range r.teams {
		standing := TeamStanding{
			ID:      team.ID,
			Name:    team.Name,
			Color:   team.Color,
			Players: []TeamMember{},
		}
		for _, p := range r.players {
			if p.TeamID == team.ID {
				standing.Score += p.Score
				standing.PlayerCount++
				standing.Players = append(standing.Players, TeamMember{
					ID:    p.ID,
					Name:  p.Name,
					Score: p.Score,
				})
			}
		}
		sort.Slice(standing.Players, func(i, j int) bool {
			if standing.Players[i].Score != standing.Players[j].Score {
				return standing.Players[i].Score > standing.Players[j].Score
			}

			return standing.Players[i].Name < standing.Players[j].Name
		})
		standings = append(standings, standing)
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}

		return standings[i].Name < standings[j].Name
	})

	return standings
}

func (r *Room) teamLeaderboardIfLocked() []TeamStanding {
	if !r.teamMode {
		return nil
	}

	return r.teamLeaderboardLocked()
}

// ─────────────────────────── Membership ─────────────────────────── //

// AddPlayer registers a new player while the room is in the lobby.
func (r *Room) AddPlayer(name string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateLobby {
		return nil, errGameInProgress
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errEmptyName
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			return nil, errNameTaken
		}
	}

	player := newPlayer(uuid.NewString()[:8], name)
	r.players[player.ID] = player
	r.touchLocked()

	r.broadcastLocked(PlayerJoinedMessage{
		Type:      "player_joined",
		Player:    PlayerInfo{ID: player.ID, Name: player.Name},
		RoomState: r.lobbyStateLocked(),
	})

	logf(r.cfg, "ROOM: %s | %s (%s) joined", r.code, player.Name, player.ID)

	return player, nil
}

func (r *Room) kickPlayerLocked(playerID string) {
	player, ok := r.players[playerID]
	if !ok {
		return
	}

	r.sendPlayerLocked(player, SimpleMessage{Type: "kicked", Message: "You have been removed from the room."})
	if player.client != nil {
		player.client.close()
		player.client = nil
	}
	delete(r.players, playerID)

	r.broadcastLocked(PlayerLeftMessage{
		Type:      "player_left",
		PlayerID:  playerID,
		RoomState: r.lobbyStateLocked(),
	})

	logf(r.cfg, "ROOM: %s | %s kicked", r.code, playerID)
}

// ─────────────────────────── Game flow ─────────────────────────── //

func (r *Room) startGameLocked(msg HostMessage) error {
	if r.state != stateLobby && r.state != stateFinished {
		return errGameInProgress
	}

	categories := msg.Categories
	if len(categories) == 0 {
		all, err := r.bank.CategoryIDs()
		if err != nil {
			return err
		}
		categories = all
	}

	pool, err := r.bank.QuestionsFor(categories)
	if err != nil {
		return err
	}
	if len(pool) == 0 {
		return errors.New("no questions available for the selected categories")
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	count := msg.NumQuestions
	if count <= 0 {
		count = defaultNumQuestions
	}
	if count > len(pool) {
		count = len(pool)
	}

	r.questions = pool[:count]
	r.currentIdx = -1
	r.customTimeLimit = msg.TimeLimit
	r.state = stateLobby
	r.epoch++
	epoch := r.epoch
	r.touchLocked()

	for _, p := range r.players {
		p.Score = 0
		p.Streak = 0
		p.resetRound()
	}

	r.broadcastLocked(GameStartingMessage{Type: "game_starting", Total: len(r.questions)})

	logf(r.cfg, "ROOM: %s | Game starting with %d questions", r.code, len(r.questions))

	time.AfterFunc(startCountdown, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.epoch == epoch && r.state == stateLobby {
			r.startQuestionLocked()
		}
	})

	return nil
}

func (r *Room) startQuestionLocked() {
	r.currentIdx++
	if r.currentIdx >= len(r.questions) {
		r.endGameLocked()

		return
	}

	r.state = stateQuestion
	r.questionStart = time.Now()
	r.touchLocked()
	for _, p := range r.players {
		p.resetRound()
	}
	if r.gameMode == modeBowl {
		r.resetBowlLocked()
	}

	q := r.questions[r.currentIdx]
	limit := r.displayLimitLocked(q)

	base := QuestionMessage{
		Type:         "question",
		QuestionType: q.Type,
		QuestionNum:  r.currentIdx + 1,
		Total:        len(r.questions),
		Question:     q.Prompt,
		TimeLimit:    limit,
		WaitForAll:   limit == 0 && r.gameMode != modeBowl,
		GameMode:     r.gameMode,
		Answers:      q.displayAnswers(),
	}

	hostMsg := base
	if q.Type != questionPoll && q.Type != questionOpenPoll {
		hostMsg.Correct = q.correctValue()
	}
	r.sendHostLocked(hostMsg)

	for _, p := range r.players {
		msg := base
		if q.Type == questionWager {
			score := p.Score
			msg.PlayerScore = &score
		}
		if r.gameMode == modeBowl {
			canBuzz := true
			msg.CanBuzz = &canBuzz
		}
		r.sendPlayerLocked(p, msg)
	}

	if limit > 0 && r.gameMode != modeBowl {
		epoch := r.epoch
		idx := r.currentIdx
		time.AfterFunc(time.Duration(limit)*time.Second, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.epoch == epoch && r.state == stateQuestion && r.currentIdx == idx {
				r.revealLocked()
			}
		})
	}
}

// allAnsweredLocked reports whether every connected player has submitted.
// Disconnected players without an answer do not hold up the round.
func (r *Room) allAnsweredLocked() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.Answer.isSet() && p.connected() {
			return false
		}
	}

	return true
}

func (r *Room) answersInLocked() int {
	var count int
	for _, p := range r.players {
		if p.Answer.isSet() {
			count++
		}
	}

	return count
}

// revealLocked closes the current question, applies scoring, and broadcasts
// results. A second call on the same question is a no-op.
func (r *Room) revealLocked() {
	if r.state != stateQuestion {
		return
	}
	q := r.currentQuestionLocked()
	if q == nil {
		return
	}

	r.state = stateReveal
	r.touchLocked()

	msg := RevealMessage{
		Type:         "reveal",
		QuestionType: q.Type,
		TeamMode:     r.teamMode,
		Answers:      q.displayAnswers(),
	}

	switch q.Type {
	case questionPoll:
		msg.PollResults = tallyChoicePoll(r.players)
		r.awardPollPointsLocked()
	case questionOpenPoll:
		msg.PollResults, msg.SortedAnswers = groupOpenPoll(r.players)
		r.awardPollPointsLocked()
	default:
		msg.Results = r.scoreQuestionLocked(q)
		msg.CorrectAnswer = q.correctValue()
		msg.CorrectText = q.correctText()
	}

	msg.Leaderboard = r.leaderboardLocked()
	msg.TeamLeaderboard = r.teamLeaderboardIfLocked()

	r.broadcastLocked(msg)

	logf(r.cfg, "ROOM: %s | Question %d/%d revealed", r.code, r.currentIdx+1, len(r.questions))
}

// awardPollPointsLocked grants flat participation points. Streaks are not
// affected by polls in either direction.
func (r *Room) awardPollPointsLocked() {
	for _, p := range r.players {
		if p.Answer.isSet() {
			p.Score += pollPoints
		}
	}
}

func (r *Room) scoreQuestionLocked(q *Question) []PlayerResult {
	limit := scoringLimit(q, r.customTimeLimit)
	results := make([]PlayerResult, 0, len(r.players))

	for _, p := range r.players {
		answered := p.Answer.isSet()
		correct := answered && checkAnswer(q, p.Answer)

		var points int
		switch {
		case q.Type == questionWager && answered && p.Wager > 0:
			if correct {
				points = p.Wager * 2
			} else {
				points = -p.Wager
			}
		case correct:
			// A wager answer with no stake still earns speed points.
			elapsed := p.AnsweredAt.Sub(r.questionStart).Seconds()
			points = calculatePoints(elapsed, limit)
		}

		p.Score += points
		if p.Score < 0 {
			p.Score = 0
		}
		if correct {
			p.Streak++
		} else {
			p.Streak = 0
		}

		result := PlayerResult{
			ID:           p.ID,
			Name:         p.Name,
			Answer:       p.Answer,
			Correct:      correct,
			PointsEarned: points,
			TotalScore:   p.Score,
			Streak:       p.Streak,
		}
		if q.Type == questionWager {
			wager := p.Wager
			result.Wager = &wager
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}

		return results[i].Name < results[j].Name
	})

	return results
}

func (r *Room) endGameLocked() {
	r.state = stateFinished
	r.epoch++
	r.touchLocked()

	r.broadcastLocked(GameOverMessage{
		Type:            "game_over",
		Leaderboard:     r.leaderboardLocked(),
		Total:           len(r.questions),
		TeamMode:        r.teamMode,
		TeamLeaderboard: r.teamLeaderboardIfLocked(),
	})

	logf(r.cfg, "ROOM: %s | Game over", r.code)
}

// resetRoomLocked returns the room to the lobby. Teams and membership
// survive; scores and the question run do not.
func (r *Room) resetRoomLocked() {
	r.state = stateLobby
	r.questions = nil
	r.currentIdx = -1
	r.customTimeLimit = nil
	r.minigame = nil
	r.minigameSubs = make(map[string]MinigameSubmission)
	r.previousState = ""
	r.resetBowlLocked()
	r.epoch++
	r.touchLocked()

	for _, p := range r.players {
		p.Score = 0
		p.Streak = 0
		p.resetRound()
	}

	r.broadcastLocked(RoomResetMessage{
		Type:      "room_reset",
		RoomState: r.lobbyStateLocked(),
	})

	logf(r.cfg, "ROOM: %s | Reset to lobby", r.code)
}

// ─────────────────────────── Minigames ─────────────────────────── //

func (r *Room) startMinigameLocked(msg HostMessage) error {
	if r.state != stateReveal {
		return errors.New("minigames can only start between questions")
	}
	if msg.MinigameType == "" {
		return errors.New("minigame_type is required")
	}

	duration := msg.Duration
	if duration <= 0 {
		duration = defaultMinigameDuration
	}

	r.previousState = r.state
	r.state = stateMinigame
	r.minigame = &MinigameState{
		Type:      msg.MinigameType,
		Prompt:    msg.Prompt,
		StartTime: float64(time.Now().UnixMilli()) / 1000,
		Duration:  duration,
	}
	r.minigameSubs = make(map[string]MinigameSubmission)
	r.touchLocked()

	r.broadcastLocked(MinigameStartMessage{
		Type:         "minigame_start",
		MinigameType: msg.MinigameType,
		Prompt:       msg.Prompt,
		Duration:     duration,
	})

	epoch := r.epoch
	time.AfterFunc(time.Duration(duration)*time.Second, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.epoch == epoch && r.state == stateMinigame {
			r.endMinigameLocked()
		}
	})

	logf(r.cfg, "ROOM: %s | Minigame %s started (%ds)", r.code, msg.MinigameType, duration)

	return nil
}

func (r *Room) endMinigameLocked() {
	if r.state != stateMinigame {
		return
	}

	restored := r.previousState
	if restored == "" {
		restored = stateReveal
	}
	r.state = restored
	r.previousState = ""

	submissions := make([]MinigameSubmission, 0, len(r.minigameSubs))
	for _, sub := range r.minigameSubs {
		submissions = append(submissions, sub)
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].Timestamp < submissions[j].Timestamp
	})

	var minigameType string
	if r.minigame != nil {
		minigameType = r.minigame.Type
	}
	r.minigame = nil
	r.touchLocked()

	r.broadcastLocked(MinigameEndMessage{
		Type:         "minigame_end",
		Submissions:  submissions,
		MinigameType: minigameType,
	})
}

// ─────────────────────────── Teams ─────────────────────────── //

func (r *Room) SetTeamMode(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teamMode = enabled
	if !enabled {
		for _, p := range r.players {
			p.TeamID = ""
		}
	}
	r.touchLocked()

	r.broadcastLocked(TeamModeChangedMessage{
		Type:     "team_mode_changed",
		TeamMode: r.teamMode,
		Teams:    r.teams,
	})
}

func (r *Room) SetGameMode(mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.setGameModeLocked(mode)
}

func (r *Room) setGameModeLocked(mode string) error {
	if mode != modeClassic && mode != modeBowl {
		return fmt.Errorf("unknown game mode %q", mode)
	}
	if r.state != stateLobby {
		return errors.New("game mode can only change in the lobby")
	}

	r.gameMode = mode
	if mode == modeBowl {
		// Bowl play is team against team; make sure there are teams to pick.
		r.teamMode = true
		if len(r.teams) < 2 {
			for len(r.teams) < 2 {
				r.createTeamLocked("", "")
			}
		}
	}
	r.touchLocked()

	r.broadcastLocked(GameModeChangedMessage{
		Type:     "game_mode_changed",
		GameMode: r.gameMode,
		TeamMode: r.teamMode,
		Teams:    r.teams,
	})

	return nil
}

func (r *Room) createTeamLocked(name, color string) *Team {
	idx := len(r.teams) % len(teamNames)
	if name == "" {
		name = teamNames[idx]
	}
	if color == "" {
		color = teamColors[idx]
	}

	team := &Team{
		ID:    "team_" + uuid.NewString()[:8],
		Name:  name,
		Color: color,
	}
	r.teams[team.ID] = team

	return team
}

func (r *Room) CreateTeam(name, color string) *Team {
	r.mu.Lock()
	defer r.mu.Unlock()

	team := r.createTeamLocked(name, color)
	r.teamMode = true
	r.touchLocked()

	r.broadcastLocked(TeamCreatedMessage{
		Type:     "team_created",
		Team:     team,
		Teams:    r.teams,
		TeamMode: r.teamMode,
	})

	return team
}

func (r *Room) UpdateTeam(teamID, name, color string) (*Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return nil, errTeamNotFound
	}

	if name != "" {
		team.Name = name
	}
	if color != "" {
		team.Color = color
	}
	r.touchLocked()

	r.broadcastLocked(TeamUpdatedMessage{
		Type:  "team_updated",
		Team:  team,
		Teams: r.teams,
	})

	return team, nil
}

// DeleteTeam removes a team and unassigns its members.
func (r *Room) DeleteTeam(teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.teams[teamID]; !ok {
		return errTeamNotFound
	}

	delete(r.teams, teamID)
	for _, p := range r.players {
		if p.TeamID == teamID {
			p.TeamID = ""
			r.sendPlayerLocked(p, YourTeamChangedMessage{Type: "your_team_changed"})
		}
	}
	r.touchLocked()

	r.broadcastLocked(TeamDeletedMessage{
		Type:     "team_deleted",
		TeamID:   teamID,
		Teams:    r.teams,
		TeamMode: r.teamMode,
		Players:  r.playersInfoLocked(),
	})

	return nil
}

// AssignPlayer moves a player onto a team, or off all teams when teamID is
// empty.
func (r *Room) AssignPlayer(playerID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[playerID]
	if !ok {
		return errPlayerNotFound
	}

	var team *Team
	if teamID != "" {
		team, ok = r.teams[teamID]
		if !ok {
			return errTeamNotFound
		}
	}

	player.TeamID = teamID
	r.touchLocked()

	r.sendPlayerLocked(player, YourTeamChangedMessage{
		Type:   "your_team_changed",
		TeamID: teamID,
		Team:   team,
	})
	r.broadcastLocked(PlayerTeamChangedMessage{
		Type:       "player_team_changed",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		TeamID:     teamID,
		Players:    r.playersInfoLocked(),
	})

	return nil
}

// AutoAssignTeams deals players round-robin onto n teams, creating them as
// needed.
func (r *Room) AutoAssignTeams(numTeams int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if numTeams < 2 {
		numTeams = 2
	}
	if numTeams > len(teamNames) {
		numTeams = len(teamNames)
	}

	r.teamMode = true
	for len(r.teams) < numTeams {
		r.createTeamLocked("", "")
	}

	teamIDs := make([]string, 0, len(r.teams))
	for id := range r.teams {
		teamIDs = append(teamIDs, id)
	}
	sort.Strings(teamIDs)
	teamIDs = teamIDs[:numTeams]

	shuffled := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		shuffled = append(shuffled, p)
	}
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i, p := range shuffled {
		p.TeamID = teamIDs[i%numTeams]
		r.sendPlayerLocked(p, YourTeamChangedMessage{
			Type:   "your_team_changed",
			TeamID: p.TeamID,
			Team:   r.teams[p.TeamID],
		})
	}
	r.touchLocked()

	r.broadcastLocked(TeamsAutoAssignedMessage{
		Type:     "teams_auto_assigned",
		TeamMode: r.teamMode,
		Teams:    r.teams,
		Players:  r.playersInfoLocked(),
	})

	return nil
}

// ─────────────────────────── Message dispatch ─────────────────────────── //

// handleHostMessage processes one inbound host command.
func (r *Room) handleHostMessage(msg HostMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	switch msg.Type {
	case "start_game":
		if err := r.startGameLocked(msg); err != nil {
			r.sendHostLocked(errorMsg(err.Error()))
		}
	case "next_question":
		if r.state != stateReveal {
			return
		}
		epoch := r.epoch
		time.AfterFunc(nextQuestionDelay, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.epoch == epoch && r.state == stateReveal {
				r.startQuestionLocked()
			}
		})
	case "skip_question":
		if r.state == stateQuestion {
			r.revealLocked()
		}
	case "end_game":
		if r.state != stateFinished {
			r.endGameLocked()
		}
	case "reset_room":
		r.resetRoomLocked()
	case "kick_player":
		r.kickPlayerLocked(msg.PlayerID)
	case "set_game_mode":
		if err := r.setGameModeLocked(msg.Mode); err != nil {
			r.sendHostLocked(errorMsg(err.Error()))
		}
	case "judge":
		r.judgeLocked(msg.Correct)
	case "skip_steal":
		r.skipStealLocked()
	case "start_minigame":
		if err := r.startMinigameLocked(msg); err != nil {
			r.sendHostLocked(errorMsg(err.Error()))
		}
	case "end_minigame":
		r.endMinigameLocked()
	default:
		r.sendHostLocked(errorMsg("unknown message type: " + msg.Type))
	}
}

// handlePlayerMessage processes one inbound player command.
func (r *Room) handlePlayerMessage(player *Player, msg PlayerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	switch msg.Type {
	case "answer":
		r.handleAnswerLocked(player, msg)
	case "buzz":
		r.handleBuzzLocked(player)
	case "bowl_answer":
		r.handleBowlAnswerLocked(player, msg)
	case "steal_buzz":
		r.handleStealBuzzLocked(player)
	case "minigame_submit":
		r.handleMinigameSubmitLocked(player, msg)
	default:
		r.sendPlayerLocked(player, errorMsg("unknown message type: "+msg.Type))
	}
}

func (r *Room) handleAnswerLocked(player *Player, msg PlayerMessage) {
	if r.state != stateQuestion {
		r.sendPlayerLocked(player, errorMsg("No question is currently active."))

		return
	}
	if r.gameMode == modeBowl {
		r.sendPlayerLocked(player, errorMsg("Buzz in to answer."))

		return
	}
	if player.Answer.isSet() {
		return
	}

	q := r.currentQuestionLocked()
	answer, ok := decodeAnswer(q, msg.Answer)
	if !ok {
		r.sendPlayerLocked(player, errorMsg("Invalid answer."))

		return
	}

	player.Answer = answer
	player.AnsweredAt = time.Now()
	if q.Type == questionWager {
		player.Wager = clampWager(player.Score, msg.Wager)
	}

	r.sendPlayerLocked(player, AnswerReceivedMessage{
		Type:   "answer_received",
		Answer: answer,
		Wager:  player.Wager,
	})
	r.sendHostLocked(PlayerAnsweredMessage{
		Type:         "player_answered",
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		AnswersIn:    r.answersInLocked(),
		TotalPlayers: len(r.players),
	})

	if r.allAnsweredLocked() {
		r.revealLocked()
	}
}

func (r *Room) handleMinigameSubmitLocked(player *Player, msg PlayerMessage) {
	if r.state != stateMinigame {
		r.sendPlayerLocked(player, errorMsg("No minigame is currently active."))

		return
	}

	r.minigameSubs[player.ID] = MinigameSubmission{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Data:       msg.Data,
		Timestamp:  float64(time.Now().UnixMilli()) / 1000,
	}

	r.sendPlayerLocked(player, SimpleMessage{Type: "minigame_submission_received"})
	r.sendHostLocked(MinigameSubmissionMessage{
		Type:       "minigame_submission",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Data:       msg.Data,
	})
}
