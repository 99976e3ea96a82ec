package main

import (
	"testing"
	"time"
)

func TestCalculatePoints(t *testing.T) {
	cases := []struct {
		elapsed float64
		limit   int
		want    int
	}{
		{0, 20, 1000},
		{10, 20, 550},
		{20, 20, 100},
		{25, 20, 100},
		{0, 0, 1000},  // zero limit falls back to the nominal window
		{15, 0, 550},  // halfway through the nominal window
		{30, 0, 100},
	}

	for _, c := range cases {
		if got := calculatePoints(c.elapsed, c.limit); got != c.want {
			t.Fatalf("calculatePoints(%v, %d) = %d, want %d", c.elapsed, c.limit, got, c.want)
		}
	}
}

func TestScoringLimit(t *testing.T) {
	q := &Question{TimeLimit: 20}

	if got := scoringLimit(q, nil); got != 20 {
		t.Fatalf("default limit = %d, want 20", got)
	}

	custom := 45
	if got := scoringLimit(q, &custom); got != 45 {
		t.Fatalf("custom limit = %d, want 45", got)
	}

	// A custom limit of zero means wait-for-all; scoring still uses the
	// question's own window.
	zero := 0
	if got := scoringLimit(q, &zero); got != 20 {
		t.Fatalf("wait-for-all limit = %d, want 20", got)
	}

	if got := scoringLimit(&Question{}, &zero); got != nominalWindow {
		t.Fatalf("fallback limit = %d, want %d", got, nominalWindow)
	}
}

func TestClampWager(t *testing.T) {
	cases := []struct {
		score, wager, want int
	}{
		{300, 1000, 300},
		{300, 0, 0},
		{300, -50, 0},
		{50, 200, 0},
		{1000, 50, 100},
		{1000, 1000, 500},
		{400, 450, 400},
		{100, 100, 100},
		{99, 500, 0},
	}

	for _, c := range cases {
		if got := clampWager(c.score, c.wager); got != c.want {
			t.Fatalf("clampWager(%d, %d) = %d, want %d", c.score, c.wager, got, c.want)
		}
	}
}

func TestCheckAnswerChoice(t *testing.T) {
	q := &Question{
		Type:         questionChoice,
		Answers:      []string{"Mars", "Jupiter", "Saturn"},
		CorrectIndex: 1,
	}

	if !checkAnswer(q, Answer{Kind: answerIndex, Index: 1}) {
		t.Fatal("correct index rejected")
	}
	if checkAnswer(q, Answer{Kind: answerIndex, Index: 0}) {
		t.Fatal("wrong index accepted")
	}
	if checkAnswer(q, Answer{}) {
		t.Fatal("unset answer accepted")
	}
}

func TestCheckAnswerTrueFalse(t *testing.T) {
	q := &Question{Type: questionTrueFalse, CorrectBool: false}

	if !checkAnswer(q, Answer{Kind: answerBool, Bool: false}) {
		t.Fatal("correct boolean rejected")
	}
	if checkAnswer(q, Answer{Kind: answerBool, Bool: true}) {
		t.Fatal("wrong boolean accepted")
	}
}

func TestCheckAnswerText(t *testing.T) {
	q := &Question{Type: questionText, CorrectTexts: []string{"Stone", "philosopher's stone"}}

	for _, given := range []string{"stone", " STONE ", "Philosopher's Stone"} {
		if !checkAnswer(q, Answer{Kind: answerText, Text: given}) {
			t.Fatalf("accepted text %q rejected", given)
		}
	}
	if checkAnswer(q, Answer{Kind: answerText, Text: "rock"}) {
		t.Fatal("wrong text accepted")
	}
}

func TestCheckAnswerNumber(t *testing.T) {
	q := &Question{Type: questionNumber, CorrectNumber: 100, Tolerance: 5}

	if !checkAnswer(q, Answer{Kind: answerNumber, Number: 104}) {
		t.Fatal("answer inside tolerance rejected")
	}
	if !checkAnswer(q, Answer{Kind: answerNumber, Number: 95}) {
		t.Fatal("answer at tolerance edge rejected")
	}
	if checkAnswer(q, Answer{Kind: answerNumber, Number: 106}) {
		t.Fatal("answer outside tolerance accepted")
	}
}

func TestCheckAnswerWagerUsesIndex(t *testing.T) {
	q := &Question{
		Type:         questionWager,
		Answers:      []string{"Endgame", "Avatar"},
		CorrectIndex: 1,
	}

	if !checkAnswer(q, Answer{Kind: answerIndex, Index: 1}) {
		t.Fatal("correct wager choice rejected")
	}
	if checkAnswer(q, Answer{Kind: answerNumber, Number: 1}) {
		t.Fatal("wrong answer kind accepted")
	}
}

func TestMatchesBowlAnswer(t *testing.T) {
	choice := &Question{
		Type:         questionChoice,
		Answers:      []string{"Mars", "Jupiter"},
		CorrectIndex: 1,
	}
	if !matchesBowlAnswer(choice, "  jupiter ") {
		t.Fatal("spoken choice answer rejected")
	}

	tf := &Question{Type: questionTrueFalse, CorrectBool: true}
	if !matchesBowlAnswer(tf, "TRUE") {
		t.Fatal("spoken boolean answer rejected")
	}
	if matchesBowlAnswer(tf, "") {
		t.Fatal("empty answer accepted")
	}
}

func TestGroupOpenPoll(t *testing.T) {
	base := time.Now()
	players := map[string]*Player{
		"a": {ID: "a", Answer: Answer{Kind: answerText, Text: " Pizza "}, AnsweredAt: base},
		"b": {ID: "b", Answer: Answer{Kind: answerText, Text: "pizza"}, AnsweredAt: base.Add(time.Second)},
		"c": {ID: "c", Answer: Answer{Kind: answerText, Text: "Tacos"}, AnsweredAt: base.Add(2 * time.Second)},
		"d": {ID: "d"},
	}

	counts, sorted := groupOpenPoll(players)

	if len(counts) != 2 {
		t.Fatalf("got %d groups, want 2", len(counts))
	}
	if counts["Pizza"] != 2 {
		t.Fatalf("Pizza count = %d, want 2 (counts: %v)", counts["Pizza"], counts)
	}
	if counts["Tacos"] != 1 {
		t.Fatalf("Tacos count = %d, want 1", counts["Tacos"])
	}

	if len(sorted) != 2 || sorted[0].Answer != "Pizza" || sorted[0].Count != 2 {
		t.Fatalf("unexpected sort order: %+v", sorted)
	}
}

func TestTallyChoicePoll(t *testing.T) {
	players := map[string]*Player{
		"a": {Answer: Answer{Kind: answerIndex, Index: 0}},
		"b": {Answer: Answer{Kind: answerIndex, Index: 0}},
		"c": {Answer: Answer{Kind: answerIndex, Index: 2}},
		"d": {},
	}

	counts := tallyChoicePoll(players)

	if counts["0"] != 2 || counts["2"] != 1 {
		t.Fatalf("unexpected tallies: %v", counts)
	}
	if _, ok := counts["1"]; ok {
		t.Fatal("empty option should not appear")
	}
}
