package main

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	basePoints  = 100
	speedPoints = 900

	// Scoring window applied when a question has no effective time limit
	// (wait-for-all rounds still reward fast answers).
	nominalWindow = 30

	pollPoints      = 50
	bowlPoints      = 10
	bowlStealPoints = 5

	minWager = 100
	maxWager = 500
)

// calculatePoints awards 100 base points plus up to 900 speed points that
// decay linearly over the time limit.
func calculatePoints(elapsed float64, limit int) int {
	if limit <= 0 {
		limit = nominalWindow
	}
	if elapsed >= float64(limit) {
		return basePoints
	}

	return basePoints + int(math.Floor(speedPoints*(1-elapsed/float64(limit))))
}

// scoringLimit resolves the window used for speed scoring. A custom limit of
// zero means wait-for-all, which falls back to the question's own limit and
// finally the nominal window.
func scoringLimit(question *Question, custom *int) int {
	limit := question.TimeLimit
	if custom != nil && *custom > 0 {
		limit = *custom
	}
	if limit <= 0 {
		limit = nominalWindow
	}

	return limit
}

// clampWager enforces the wager bounds at submission time: at least 100, at
// most the smaller of the player's score and 500. Declining to wager stays
// zero, and players under 100 points cannot stake anything.
func clampWager(score int, wager int) int {
	if wager <= 0 || score < minWager {
		return 0
	}

	ceiling := min(score, maxWager)

	return max(minWager, min(wager, ceiling))
}

// checkAnswer reports whether an answer is correct. Polls have no correct
// answer and always return false.
func checkAnswer(question *Question, answer Answer) bool {
	if !answer.isSet() {
		return false
	}

	switch question.Type {
	case questionChoice, questionWager:
		return answer.Kind == answerIndex && answer.Index == question.CorrectIndex
	case questionTrueFalse:
		return answer.Kind == answerBool && answer.Bool == question.CorrectBool
	case questionText:
		if answer.Kind != answerText {
			return false
		}
		given := strings.ToLower(strings.TrimSpace(answer.Text))
		for _, accepted := range question.CorrectTexts {
			if given == strings.ToLower(strings.TrimSpace(accepted)) {
				return true
			}
		}

		return false
	case questionNumber:
		if answer.Kind != answerNumber {
			return false
		}

		return math.Abs(answer.Number-question.CorrectNumber) <= question.Tolerance
	default:
		return false
	}
}

// matchesBowlAnswer compares a spoken-style answer against the accepted
// answers for a bowl round, case- and whitespace-insensitively.
func matchesBowlAnswer(question *Question, given string) bool {
	normalized := strings.ToLower(strings.TrimSpace(given))
	if normalized == "" {
		return false
	}

	switch question.Type {
	case questionChoice, questionWager:
		if question.CorrectIndex >= 0 && question.CorrectIndex < len(question.Answers) {
			return normalized == strings.ToLower(strings.TrimSpace(question.Answers[question.CorrectIndex]))
		}

		return false
	case questionTrueFalse:
		if question.CorrectBool {
			return normalized == "true"
		}

		return normalized == "false"
	case questionText:
		for _, accepted := range question.CorrectTexts {
			if normalized == strings.ToLower(strings.TrimSpace(accepted)) {
				return true
			}
		}

		return false
	default:
		return normalized == strings.ToLower(strings.TrimSpace(question.correctText()))
	}
}

// tallyChoicePoll counts poll votes per option index. Keys are stringified
// indices so the payload round-trips as JSON.
func tallyChoicePoll(players map[string]*Player) map[string]int {
	counts := make(map[string]int)

	for _, p := range players {
		if p.Answer.Kind == answerIndex {
			counts[strconv.Itoa(p.Answer.Index)]++
		}
	}

	return counts
}

// groupOpenPoll buckets free-text poll answers case-insensitively, keeping
// the first-seen casing as the display form, sorted by popularity.
func groupOpenPoll(players map[string]*Player) (map[string]int, []PollCount) {
	counts := make(map[string]int)
	display := make(map[string]string)

	ordered := make([]*Player, 0, len(players))
	for _, p := range players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].AnsweredAt.Before(ordered[j].AnsweredAt)
	})

	for _, p := range ordered {
		if p.Answer.Kind != answerText {
			continue
		}
		trimmed := strings.TrimSpace(p.Answer.Text)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, seen := display[key]; !seen {
			display[key] = trimmed
		}
		counts[key]++
	}

	results := make(map[string]int, len(counts))
	sorted := make([]PollCount, 0, len(counts))
	for key, count := range counts {
		results[display[key]] = count
		sorted = append(sorted, PollCount{Answer: display[key], Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}

		return sorted[i].Answer < sorted[j].Answer
	})

	return results, sorted
}
