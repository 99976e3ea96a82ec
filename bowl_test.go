package main

import (
	"encoding/json"
	"testing"
)

// bowlRoom builds a bowl-mode room with two players on opposite teams and a
// question on the floor.
func bowlRoom(t *testing.T) (r *Room, p1, p2 *Player) {
	t.Helper()

	r = testRoom(t)
	r.handleHostMessage(HostMessage{Type: "set_game_mode", Mode: modeBowl})

	p1, _ = r.AddPlayer("Alice")
	p2, _ = r.AddPlayer("Bob")

	r.mu.Lock()
	teams := make([]string, 0, 2)
	for id := range r.teams {
		teams = append(teams, id)
	}
	r.mu.Unlock()
	if len(teams) != 2 {
		t.Fatalf("bowl setup created %d teams, want 2", len(teams))
	}
	if err := r.AssignPlayer(p1.ID, teams[0]); err != nil {
		t.Fatalf("AssignPlayer: %v", err)
	}
	if err := r.AssignPlayer(p2.ID, teams[1]); err != nil {
		t.Fatalf("AssignPlayer: %v", err)
	}

	q := &Question{
		Type:         questionText,
		Prompt:       "Largest planet?",
		CorrectTexts: []string{"jupiter"},
		TimeLimit:    15,
	}
	startQuestion(t, r, q)

	return r, p1, p2
}

func TestBowlSingleBuzzWinner(t *testing.T) {
	r, p1, p2 := bowlRoom(t)

	r.handlePlayerMessage(p1, PlayerMessage{Type: "buzz"})
	r.handlePlayerMessage(p2, PlayerMessage{Type: "buzz"})

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bowl.phase != bowlAnswering {
		t.Fatalf("phase = %q, want answering", r.bowl.phase)
	}
	if r.bowl.buzzWinner != p1.ID {
		t.Fatalf("winner = %q, want first buzzer %q", r.bowl.buzzWinner, p1.ID)
	}
}

func TestBowlCorrectAnswerScores(t *testing.T) {
	r, p1, _ := bowlRoom(t)

	r.handlePlayerMessage(p1, PlayerMessage{Type: "buzz"})
	r.handlePlayerMessage(p1, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Jupiter"`)})

	r.mu.Lock()
	if !r.bowl.awaitingJudgment {
		r.mu.Unlock()
		t.Fatal("answer did not reach judgment")
	}
	r.mu.Unlock()

	r.handleHostMessage(HostMessage{Type: "judge", Correct: true})

	if p1.Score != bowlPoints {
		t.Fatalf("score = %d, want %d", p1.Score, bowlPoints)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateReveal {
		t.Fatalf("state = %q, want reveal after a correct answer", r.state)
	}
}

func TestBowlStealFlow(t *testing.T) {
	r, p1, p2 := bowlRoom(t)

	r.handlePlayerMessage(p1, PlayerMessage{Type: "buzz"})
	r.handlePlayerMessage(p1, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Saturn"`)})
	r.handleHostMessage(HostMessage{Type: "judge", Correct: false})

	r.mu.Lock()
	if r.bowl.phase != bowlStealing {
		r.mu.Unlock()
		t.Fatalf("phase = %q, want stealing", r.bowl.phase)
	}
	if r.bowl.stealEligible[p1.TeamID] {
		r.mu.Unlock()
		t.Fatal("missing team still steal-eligible")
	}
	r.mu.Unlock()

	// The judged-out team cannot buzz back in.
	r.handlePlayerMessage(p1, PlayerMessage{Type: "steal_buzz"})
	r.mu.Lock()
	if r.bowl.phase != bowlStealing {
		r.mu.Unlock()
		t.Fatal("ineligible team won the steal")
	}
	r.mu.Unlock()

	r.handlePlayerMessage(p2, PlayerMessage{Type: "steal_buzz"})
	r.handlePlayerMessage(p2, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Jupiter"`)})
	r.handleHostMessage(HostMessage{Type: "judge", Correct: true})

	if p2.Score != bowlStealPoints {
		t.Fatalf("steal score = %d, want %d", p2.Score, bowlStealPoints)
	}
	if p1.Score != 0 {
		t.Fatalf("missing team scored %d", p1.Score)
	}
}

func TestBowlIncorrectResetsStreak(t *testing.T) {
	r, p1, _ := bowlRoom(t)
	p1.Streak = 5

	r.handlePlayerMessage(p1, PlayerMessage{Type: "buzz"})
	r.handlePlayerMessage(p1, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Saturn"`)})
	r.handleHostMessage(HostMessage{Type: "judge", Correct: false})

	if p1.Streak != 0 {
		t.Fatalf("streak = %d, want reset after an incorrect judgment", p1.Streak)
	}
}

func TestBowlTeamlessPlayerCanBuzz(t *testing.T) {
	r := testRoom(t)
	r.handleHostMessage(HostMessage{Type: "set_game_mode", Mode: modeBowl})
	solo, _ := r.AddPlayer("Solo")

	q := &Question{
		Type:         questionText,
		Prompt:       "Largest planet?",
		CorrectTexts: []string{"jupiter"},
		TimeLimit:    15,
	}
	startQuestion(t, r, q)

	r.handlePlayerMessage(solo, PlayerMessage{Type: "buzz"})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bowl.phase != bowlAnswering {
		t.Fatalf("phase = %q, want answering for a teamless buzzer", r.bowl.phase)
	}
	if r.bowl.buzzWinner != solo.ID {
		t.Fatalf("winner = %q, want %q", r.bowl.buzzWinner, solo.ID)
	}
}

func TestBowlAllTeamsMissEndsRound(t *testing.T) {
	r, p1, p2 := bowlRoom(t)

	r.handlePlayerMessage(p1, PlayerMessage{Type: "buzz"})
	r.handlePlayerMessage(p1, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Saturn"`)})
	r.handleHostMessage(HostMessage{Type: "judge", Correct: false})

	r.handlePlayerMessage(p2, PlayerMessage{Type: "steal_buzz"})
	r.handlePlayerMessage(p2, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Mars"`)})
	r.handleHostMessage(HostMessage{Type: "judge", Correct: false})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateReveal {
		t.Fatalf("state = %q, want reveal after every team missed", r.state)
	}
	if p1.Score != 0 || p2.Score != 0 {
		t.Fatalf("scores = %d/%d, want 0/0", p1.Score, p2.Score)
	}
}

func TestBowlSkipSteal(t *testing.T) {
	r, p1, _ := bowlRoom(t)

	r.handlePlayerMessage(p1, PlayerMessage{Type: "buzz"})
	r.handlePlayerMessage(p1, PlayerMessage{Type: "bowl_answer", Answer: json.RawMessage(`"Saturn"`)})
	r.handleHostMessage(HostMessage{Type: "judge", Correct: false})
	r.handleHostMessage(HostMessage{Type: "skip_steal"})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateReveal {
		t.Fatalf("state = %q, want reveal after skipping the steal", r.state)
	}
}

func TestBowlClassicAnswerRejected(t *testing.T) {
	r, p1, _ := bowlRoom(t)
	r.mu.Lock()
	p1.client = fakeClient()
	r.mu.Unlock()

	r.handlePlayerMessage(p1, PlayerMessage{Type: "answer", Answer: json.RawMessage(`"Jupiter"`)})

	if p1.Answer.isSet() {
		t.Fatal("direct answers must not be accepted in bowl mode")
	}
	if _, ok := drainFor[ErrorMessage](p1.client); !ok {
		t.Fatal("expected an error message")
	}
}
