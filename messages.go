package main

import (
	"encoding/json"
)

// Messages coming from the host connection.
type HostMessage struct {
	Type         string   `json:"type"`                    // see dispatch in sockets.go
	Categories   []string `json:"categories,omitempty"`    // start_game
	NumQuestions int      `json:"num_questions,omitempty"` // start_game
	TimeLimit    *int     `json:"time_limit,omitempty"`    // start_game; nil = per-question default, 0 = wait for all
	PlayerID     string   `json:"player_id,omitempty"`     // kick_player
	Mode         string   `json:"mode,omitempty"`          // set_game_mode
	Correct      bool     `json:"correct,omitempty"`       // judge
	MinigameType string   `json:"minigame_type,omitempty"` // start_minigame
	Prompt       string   `json:"prompt,omitempty"`        // start_minigame
	Duration     int      `json:"duration,omitempty"`      // start_minigame
}

// Messages coming from player connections.
type PlayerMessage struct {
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer,omitempty"` // answer / bowl_answer
	Wager  int             `json:"wager,omitempty"`  // answer (wager questions)
	Data   string          `json:"data,omitempty"`   // minigame_submit
}

// SimpleMessage covers generic notifications ("kicked", "room_closed", ...).
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func errorMsg(message string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: message}
}

// PlayerInfo is the roster entry shared by lobby and team messages.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"team_id,omitempty"`
}

// RoomState is the lobby-level view of a room, embedded in several messages.
type RoomState struct {
	RoomCode      string           `json:"room_code"`
	State         string           `json:"state"`
	Players       []PlayerInfo     `json:"players"`
	PlayerCount   int              `json:"player_count"`
	TeamMode      bool             `json:"team_mode"`
	Teams         map[string]*Team `json:"teams"`
	GameMode      string           `json:"game_mode"`
	MinigameState *MinigameState   `json:"minigame_state,omitempty"`
}

// FullState extends RoomState with everything a reconnecting client needs to
// render the correct screen without replaying history.
type FullState struct {
	RoomState
	HostConnected   bool              `json:"host_connected"`
	TeamLeaderboard []TeamStanding    `json:"team_leaderboard,omitempty"`
	BowlPhase       string            `json:"bowl_phase,omitempty"`
	BuzzWinner      string            `json:"buzz_winner,omitempty"`
	BuzzTeam        string            `json:"buzz_team,omitempty"`
	AwaitingJudge   bool              `json:"awaiting_judgment,omitempty"`
	StealEligible   []string          `json:"steal_eligible,omitempty"`
	CurrentQuestion *QuestionSnapshot `json:"current_question,omitempty"`
}

type RoomStateMessage struct {
	Type string `json:"type"` // "room_state"
	FullState
}

type RoomResetMessage struct {
	Type string `json:"type"` // "room_reset"
	RoomState
}

// QuestionMessage announces a new question. Correct is populated only on the
// copy sent to the host.
type QuestionMessage struct {
	Type         string   `json:"type"` // "question"
	QuestionType string   `json:"question_type"`
	QuestionNum  int      `json:"question_num"`
	Total        int      `json:"total_questions"`
	Question     string   `json:"question"`
	TimeLimit    int      `json:"time_limit"`
	WaitForAll   bool     `json:"wait_for_all"`
	GameMode     string   `json:"game_mode"`
	Answers      []string `json:"answers,omitempty"`
	Correct      any      `json:"correct,omitempty"`
	PlayerScore  *int     `json:"player_score,omitempty"` // wager questions only
	CanBuzz      *bool    `json:"can_buzz,omitempty"`     // bowl mode only
}

// QuestionSnapshot is the in-progress question view included in connect
// handshakes.
type QuestionSnapshot struct {
	QuestionType string   `json:"question_type"`
	QuestionNum  int      `json:"question_num"`
	Total        int      `json:"total_questions"`
	Question     string   `json:"question"`
	TimeLimit    int      `json:"time_limit"`
	WaitForAll   bool     `json:"wait_for_all"`
	Answers      []string `json:"answers,omitempty"`
	Correct      any      `json:"correct,omitempty"` // host copies only
	PlayerScore  *int     `json:"player_score,omitempty"`
}

// JoinedMessage is the player connect handshake.
type JoinedMessage struct {
	Type            string            `json:"type"` // "joined"
	PlayerID        string            `json:"player_id"`
	PlayerName      string            `json:"player_name"`
	RoomCode        string            `json:"room_code"`
	State           string            `json:"state"`
	HostConnected   bool              `json:"host_connected"`
	Score           int               `json:"score"`
	TeamID          string            `json:"team_id,omitempty"`
	Team            *Team             `json:"team,omitempty"`
	MinigameState   *MinigameState    `json:"minigame_state,omitempty"`
	CurrentQuestion *QuestionSnapshot `json:"current_question,omitempty"`
	AlreadyAnswered bool              `json:"already_answered,omitempty"`
}

type PlayerJoinedMessage struct {
	Type   string     `json:"type"` // "player_joined"
	Player PlayerInfo `json:"player"`
	RoomState
}

type PlayerLeftMessage struct {
	Type     string `json:"type"` // "player_left"
	PlayerID string `json:"player_id"`
	RoomState
}

type PlayerDisconnectedMessage struct {
	Type        string `json:"type"` // "player_disconnected"
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
	PlayerCount int    `json:"player_count"`
}

type GameStartingMessage struct {
	Type  string `json:"type"` // "game_starting"
	Total int    `json:"total_questions"`
}

type PlayerAnsweredMessage struct {
	Type         string `json:"type"` // "player_answered"
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	AnswersIn    int    `json:"answers_in"`
	TotalPlayers int    `json:"total_players"`
}

type AnswerReceivedMessage struct {
	Type   string `json:"type"` // "answer_received"
	Answer Answer `json:"answer"`
	Wager  int    `json:"wager"`
}

// PlayerResult is one player's outcome on reveal.
type PlayerResult struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Answer       Answer `json:"answer"`
	Wager        *int   `json:"wager,omitempty"`
	Correct      bool   `json:"correct"`
	PointsEarned int    `json:"points_earned"`
	TotalScore   int    `json:"total_score"`
	Streak       int    `json:"streak"`
}

// LeaderboardEntry carries team fields only in team mode.
type LeaderboardEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Streak    int    `json:"streak"`
	TeamID    string `json:"team_id,omitempty"`
	TeamName  string `json:"team_name,omitempty"`
	TeamColor string `json:"team_color,omitempty"`
}

type TeamStanding struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Color       string       `json:"color"`
	Score       int          `json:"score"`
	PlayerCount int          `json:"player_count"`
	Players     []TeamMember `json:"players"`
}

type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// PollCount is one grouped answer in poll results, sorted by count.
type PollCount struct {
	Answer string `json:"answer"`
	Count  int    `json:"count"`
}

type RevealMessage struct {
	Type            string             `json:"type"` // "reveal"
	QuestionType    string             `json:"question_type"`
	Results         []PlayerResult     `json:"results"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	TeamMode        bool               `json:"team_mode"`
	TeamLeaderboard []TeamStanding     `json:"team_leaderboard,omitempty"`
	PollResults     map[string]int     `json:"poll_results,omitempty"`
	SortedAnswers   []PollCount        `json:"sorted_answers,omitempty"`
	Answers         []string           `json:"answers,omitempty"`
	CorrectAnswer   any                `json:"correct_answer,omitempty"`
	CorrectText     string             `json:"correct_text,omitempty"`
}

type GameOverMessage struct {
	Type            string             `json:"type"` // "game_over"
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	Total           int                `json:"total_questions"`
	TeamMode        bool               `json:"team_mode"`
	TeamLeaderboard []TeamStanding     `json:"team_leaderboard,omitempty"`
}

// ─────────────────────────── Bowl mode ─────────────────────────── //

type BuzzResultMessage struct {
	Type       string `json:"type"` // "buzz_winner" / "steal_winner"
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TeamID     string `json:"team_id,omitempty"`
	Team       *Team  `json:"team,omitempty"`
}

type BowlAnswerSubmittedMessage struct {
	Type       string `json:"type"` // "bowl_answer_submitted"
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TeamID     string `json:"team_id,omitempty"`
	Team       *Team  `json:"team,omitempty"`
	Answer     string `json:"answer"`
	IsSteal    bool   `json:"is_steal"`
}

type BowlAnswerReceivedMessage struct {
	Type    string `json:"type"` // "bowl_answer_received"
	Answer  string `json:"answer"`
	Message string `json:"message"`
}

// AwaitingJudgmentMessage asks the host for a ruling. LikelyCorrect is a
// string-match hint; the host's call is still final.
type AwaitingJudgmentMessage struct {
	Type          string `json:"type"` // "awaiting_judgment"
	PlayerName    string `json:"player_name"`
	TeamID        string `json:"team_id,omitempty"`
	Answer        string `json:"answer"`
	CorrectText   string `json:"correct_text"`
	LikelyCorrect bool   `json:"likely_correct"`
}

type BowlCorrectMessage struct {
	Type            string             `json:"type"` // "bowl_correct"
	PlayerID        string             `json:"player_id"`
	PlayerName      string             `json:"player_name"`
	TeamID          string             `json:"team_id,omitempty"`
	Answer          string             `json:"answer"`
	Points          int                `json:"points"`
	IsSteal         bool               `json:"is_steal"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	TeamLeaderboard []TeamStanding     `json:"team_leaderboard,omitempty"`
}

type BowlIncorrectStealMessage struct {
	Type          string   `json:"type"` // "bowl_incorrect_steal"
	PlayerID      string   `json:"player_id"`
	PlayerName    string   `json:"player_name"`
	TeamID        string   `json:"team_id,omitempty"`
	StealEligible []string `json:"steal_eligible"`
	Message       string   `json:"message"`
}

type BowlNoCorrectMessage struct {
	Type            string             `json:"type"` // "bowl_no_correct"
	PlayerID        string             `json:"player_id"`
	PlayerName      string             `json:"player_name"`
	TeamID          string             `json:"team_id,omitempty"`
	GivenAnswer     string             `json:"given_answer"`
	CorrectAnswer   string             `json:"correct_answer"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	TeamLeaderboard []TeamStanding     `json:"team_leaderboard,omitempty"`
}

type BowlStealSkippedMessage struct {
	Type            string             `json:"type"` // "bowl_steal_skipped"
	CorrectAnswer   string             `json:"correct_answer"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	TeamLeaderboard []TeamStanding     `json:"team_leaderboard,omitempty"`
}

// ─────────────────────────── Teams ─────────────────────────── //

type GameModeChangedMessage struct {
	Type     string           `json:"type"` // "game_mode_changed"
	GameMode string           `json:"game_mode"`
	TeamMode bool             `json:"team_mode"`
	Teams    map[string]*Team `json:"teams"`
}

type TeamModeChangedMessage struct {
	Type     string           `json:"type"` // "team_mode_changed"
	TeamMode bool             `json:"team_mode"`
	Teams    map[string]*Team `json:"teams"`
}

type TeamCreatedMessage struct {
	Type     string           `json:"type"` // "team_created"
	Team     *Team            `json:"team"`
	Teams    map[string]*Team `json:"teams"`
	TeamMode bool             `json:"team_mode"`
}

type TeamUpdatedMessage struct {
	Type  string           `json:"type"` // "team_updated"
	Team  *Team            `json:"team"`
	Teams map[string]*Team `json:"teams"`
}

type TeamDeletedMessage struct {
	Type     string           `json:"type"` // "team_deleted"
	TeamID   string           `json:"team_id"`
	Teams    map[string]*Team `json:"teams"`
	TeamMode bool             `json:"team_mode"`
	Players  []PlayerInfo     `json:"players"`
}

type PlayerTeamChangedMessage struct {
	Type       string       `json:"type"` // "player_team_changed"
	PlayerID   string       `json:"player_id"`
	PlayerName string       `json:"player_name"`
	TeamID     string       `json:"team_id,omitempty"`
	Players    []PlayerInfo `json:"players"`
}

type YourTeamChangedMessage struct {
	Type   string `json:"type"` // "your_team_changed"
	TeamID string `json:"team_id,omitempty"`
	Team   *Team  `json:"team,omitempty"`
}

type TeamsAutoAssignedMessage struct {
	Type     string           `json:"type"` // "teams_auto_assigned"
	TeamMode bool             `json:"team_mode"`
	Teams    map[string]*Team `json:"teams"`
	Players  []PlayerInfo     `json:"players"`
}

// ─────────────────────────── Minigames ─────────────────────────── //

type MinigameState struct {
	Type      string  `json:"type"`
	Prompt    string  `json:"prompt,omitempty"`
	StartTime float64 `json:"start_time"`
	Duration  int     `json:"duration"`
}

type MinigameStartMessage struct {
	Type         string `json:"type"` // "minigame_start"
	MinigameType string `json:"minigame_type"`
	Prompt       string `json:"prompt,omitempty"`
	Duration     int    `json:"duration"`
}

type MinigameSubmission struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Data       string  `json:"data"`
	Timestamp  float64 `json:"timestamp"`
}

type MinigameEndMessage struct {
	Type         string               `json:"type"` // "minigame_end"
	Submissions  []MinigameSubmission `json:"submissions"`
	MinigameType string               `json:"minigame_type,omitempty"`
}

type MinigameSubmissionMessage struct {
	Type       string `json:"type"` // "minigame_submission"
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Data       string `json:"data"`
}
