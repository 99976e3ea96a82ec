package main

import (
	"encoding/json"
	"sort"
	"strings"
)

// Bowl round phases.
const (
	bowlBuzzing   = "buzzing"
	bowlAnswering = "answering"
	bowlStealing  = "stealing"
)

// bowlState tracks one buzzer round. The phase walks buzzing → answering,
// then either the round ends or the remaining teams get a steal window and
// the cycle repeats.
type bowlState struct {
	phase            string
	buzzWinner       string
	awaitingJudgment bool
	pendingAnswer    string
	stealEligible    map[string]bool
}

func (b *bowlState) eligibleTeams() []string {
	teams := make([]string, 0, len(b.stealEligible))
	for id := range b.stealEligible {
		teams = append(teams, id)
	}
	sort.Strings(teams)

	return teams
}

func (r *Room) resetBowlLocked() {
	r.bowl = bowlState{
		phase:         bowlBuzzing,
		stealEligible: make(map[string]bool, len(r.teams)),
	}
	for id := range r.teams {
		r.bowl.stealEligible[id] = true
	}
}

// isStealLocked reports whether the current attempt is a steal: some team
// has already been judged out this round.
func (r *Room) isStealLocked() bool {
	return len(r.bowl.stealEligible) < len(r.teams)
}

func (r *Room) handleBuzzLocked(player *Player) {
	if r.gameMode != modeBowl || r.state != stateQuestion {
		return
	}
	if r.bowl.phase != bowlBuzzing {
		r.sendPlayerLocked(player, SimpleMessage{Type: "buzz_too_slow", Message: "Someone beat you to it."})

		return
	}
	// Teamless players may still buzz; only a judged-out team is barred.
	if player.TeamID != "" && !r.bowl.stealEligible[player.TeamID] {
		r.sendPlayerLocked(player, errorMsg("Your team cannot buzz in right now."))

		return
	}

	r.bowl.phase = bowlAnswering
	r.bowl.buzzWinner = player.ID

	r.sendPlayerLocked(player, SimpleMessage{Type: "you_buzzed_first"})
	r.broadcastLocked(BuzzResultMessage{
		Type:       "buzz_winner",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		TeamID:     player.TeamID,
		Team:       r.teams[player.TeamID],
	})

	logf(r.cfg, "ROOM: %s | %s buzzed in", r.code, player.Name)
}

func (r *Room) handleStealBuzzLocked(player *Player) {
	if r.gameMode != modeBowl || r.state != stateQuestion {
		return
	}
	if r.bowl.phase != bowlStealing {
		r.sendPlayerLocked(player, errorMsg("There is no steal opportunity right now."))

		return
	}
	if player.TeamID == "" || !r.bowl.stealEligible[player.TeamID] {
		r.sendPlayerLocked(player, errorMsg("Your team cannot steal this question."))

		return
	}

	r.bowl.phase = bowlAnswering
	r.bowl.buzzWinner = player.ID

	r.broadcastLocked(BuzzResultMessage{
		Type:       "steal_winner",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		TeamID:     player.TeamID,
		Team:       r.teams[player.TeamID],
	})
}

func (r *Room) handleBowlAnswerLocked(player *Player, msg PlayerMessage) {
	if r.gameMode != modeBowl || r.state != stateQuestion {
		return
	}
	if r.bowl.phase != bowlAnswering || r.bowl.buzzWinner != player.ID {
		r.sendPlayerLocked(player, errorMsg("It is not your turn to answer."))

		return
	}

	var answer string
	if err := json.Unmarshal(msg.Answer, &answer); err != nil {
		r.sendPlayerLocked(player, errorMsg("Invalid answer."))

		return
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		r.sendPlayerLocked(player, errorMsg("Invalid answer."))

		return
	}

	r.bowl.pendingAnswer = answer
	r.bowl.awaitingJudgment = true

	r.sendPlayerLocked(player, BowlAnswerReceivedMessage{
		Type:    "bowl_answer_received",
		Answer:  answer,
		Message: "Answer submitted, waiting for the judge.",
	})
	r.broadcastLocked(BowlAnswerSubmittedMessage{
		Type:       "bowl_answer_submitted",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		TeamID:     player.TeamID,
		Team:       r.teams[player.TeamID],
		Answer:     answer,
		IsSteal:    r.isStealLocked(),
	})
	q := r.currentQuestionLocked()
	r.sendHostLocked(AwaitingJudgmentMessage{
		Type:          "awaiting_judgment",
		PlayerName:    player.Name,
		TeamID:        player.TeamID,
		Answer:        answer,
		CorrectText:   q.correctText(),
		LikelyCorrect: matchesBowlAnswer(q, answer),
	})
}

// judgeLocked applies the host's ruling on the pending bowl answer. A correct
// answer ends the round; an incorrect one opens a steal window for the teams
// that have not yet missed.
func (r *Room) judgeLocked(correct bool) {
	if r.gameMode != modeBowl || r.state != stateQuestion || !r.bowl.awaitingJudgment {
		return
	}

	player, ok := r.players[r.bowl.buzzWinner]
	if !ok {
		// Answerer was kicked mid-judgment; reopen the buzzers.
		r.bowl.phase = bowlBuzzing
		r.bowl.buzzWinner = ""
		r.bowl.awaitingJudgment = false

		return
	}

	r.bowl.awaitingJudgment = false
	isSteal := r.isStealLocked()

	if correct {
		points := bowlPoints
		if isSteal {
			points = bowlStealPoints
		}
		player.Score += points
		player.Streak++
		r.state = stateReveal
		r.touchLocked()

		r.broadcastLocked(BowlCorrectMessage{
			Type:            "bowl_correct",
			PlayerID:        player.ID,
			PlayerName:      player.Name,
			TeamID:          player.TeamID,
			Answer:          r.bowl.pendingAnswer,
			Points:          points,
			IsSteal:         isSteal,
			Leaderboard:     r.leaderboardLocked(),
			TeamLeaderboard: r.teamLeaderboardIfLocked(),
		})

		logf(r.cfg, "ROOM: %s | %s answered correctly for %d points", r.code, player.Name, points)

		return
	}

	player.Streak = 0
	delete(r.bowl.stealEligible, player.TeamID)

	if len(r.bowl.stealEligible) > 0 {
		r.bowl.phase = bowlStealing
		r.bowl.buzzWinner = ""

		r.broadcastLocked(BowlIncorrectStealMessage{
			Type:          "bowl_incorrect_steal",
			PlayerID:      player.ID,
			PlayerName:    player.Name,
			TeamID:        player.TeamID,
			StealEligible: r.bowl.eligibleTeams(),
			Message:       "Incorrect! Other teams can steal.",
		})
		for _, p := range r.players {
			if p.TeamID != "" && r.bowl.stealEligible[p.TeamID] {
				r.sendPlayerLocked(p, SimpleMessage{Type: "you_can_steal"})
			} else {
				r.sendPlayerLocked(p, SimpleMessage{Type: "steal_not_eligible"})
			}
		}

		return
	}

	// Every team has missed; show the answer and move on.
	q := r.currentQuestionLocked()
	r.state = stateReveal
	r.touchLocked()

	r.broadcastLocked(BowlNoCorrectMessage{
		Type:            "bowl_no_correct",
		PlayerID:        player.ID,
		PlayerName:      player.Name,
		TeamID:          player.TeamID,
		GivenAnswer:     r.bowl.pendingAnswer,
		CorrectAnswer:   q.correctText(),
		Leaderboard:     r.leaderboardLocked(),
		TeamLeaderboard: r.teamLeaderboardIfLocked(),
	})
}

// skipStealLocked lets the host end a steal window nobody wants.
func (r *Room) skipStealLocked() {
	if r.gameMode != modeBowl || r.state != stateQuestion || r.bowl.phase != bowlStealing {
		return
	}

	q := r.currentQuestionLocked()
	r.state = stateReveal
	r.touchLocked()

	r.broadcastLocked(BowlStealSkippedMessage{
		Type:            "bowl_steal_skipped",
		CorrectAnswer:   q.correctText(),
		Leaderboard:     r.leaderboardLocked(),
		TeamLeaderboard: r.teamLeaderboardIfLocked(),
	})
}
