package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Question types supported by the quiz engine. "choice" is the default when
// a bank entry omits the field.
const (
	questionChoice    = "choice"
	questionTrueFalse = "truefalse"
	questionPoll      = "poll"
	questionOpenPoll  = "open_poll"
	questionText      = "text"
	questionNumber    = "number"
	questionWager     = "wager"
)

const defaultTimeLimit = 15

// Question is one immutable bank entry. The correct answer is polymorphic in
// the JSON file; it is decoded into the typed field matching the question
// type and never sent to players before reveal.
type Question struct {
	ID        string
	Type      string
	Prompt    string
	Answers   []string
	Tolerance float64
	TimeLimit int
	CreatedBy string

	CorrectIndex  int
	CorrectBool   bool
	CorrectNumber float64
	CorrectTexts  []string
}

type questionJSON struct {
	ID        string          `json:"id"`
	Type      string          `json:"type,omitempty"`
	Question  string          `json:"question"`
	Answers   []string        `json:"answers,omitempty"`
	Correct   json.RawMessage `json:"correct,omitempty"`
	Tolerance *float64        `json:"tolerance,omitempty"`
	TimeLimit int             `json:"time_limit,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	q.ID = raw.ID
	q.Type = raw.Type
	if q.Type == "" {
		q.Type = questionChoice
	}
	q.Prompt = raw.Question
	q.Answers = raw.Answers
	if raw.Tolerance != nil {
		q.Tolerance = *raw.Tolerance
	}
	q.TimeLimit = raw.TimeLimit
	if q.TimeLimit <= 0 {
		q.TimeLimit = defaultTimeLimit
	}
	q.CreatedBy = raw.CreatedBy

	if len(raw.Correct) == 0 {
		return nil
	}

	switch q.Type {
	case questionChoice, questionWager:
		if err := json.Unmarshal(raw.Correct, &q.CorrectIndex); err != nil {
			return fmt.Errorf("question %s: correct must be an option index: %w", q.ID, err)
		}
	case questionTrueFalse:
		if err := json.Unmarshal(raw.Correct, &q.CorrectBool); err != nil {
			return fmt.Errorf("question %s: correct must be a boolean: %w", q.ID, err)
		}
	case questionNumber:
		if err := json.Unmarshal(raw.Correct, &q.CorrectNumber); err != nil {
			return fmt.Errorf("question %s: correct must be a number: %w", q.ID, err)
		}
	case questionText:
		// Either a single string or a list of acceptable strings.
		var one string
		if err := json.Unmarshal(raw.Correct, &one); err == nil {
			q.CorrectTexts = []string{one}
			return nil
		}
		if err := json.Unmarshal(raw.Correct, &q.CorrectTexts); err != nil {
			return fmt.Errorf("question %s: correct must be a string or list of strings: %w", q.ID, err)
		}
	case questionPoll, questionOpenPoll:
		// Polls have no correct answer; ignore whatever is in the file.
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}

	return nil
}

func (q *Question) MarshalJSON() ([]byte, error) {
	raw := questionJSON{
		ID:        q.ID,
		Type:      q.Type,
		Question:  q.Prompt,
		Answers:   q.Answers,
		TimeLimit: q.TimeLimit,
		CreatedBy: q.CreatedBy,
	}

	var err error
	switch q.Type {
	case questionChoice, questionWager:
		raw.Correct, err = json.Marshal(q.CorrectIndex)
	case questionTrueFalse:
		raw.Correct, err = json.Marshal(q.CorrectBool)
	case questionNumber:
		raw.Correct, err = json.Marshal(q.CorrectNumber)
		tolerance := q.Tolerance
		raw.Tolerance = &tolerance
	case questionText:
		raw.Correct, err = json.Marshal(q.CorrectTexts)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(raw)
}

// correctValue is the correct answer as it appears in host-directed
// messages, shaped by question type.
func (q *Question) correctValue() any {
	switch q.Type {
	case questionChoice, questionWager:
		return q.CorrectIndex
	case questionTrueFalse:
		return q.CorrectBool
	case questionNumber:
		return q.CorrectNumber
	case questionText:
		if len(q.CorrectTexts) > 0 {
			return q.CorrectTexts
		}
	}
	return nil
}

// correctText is the display form of the correct answer used on reveal.
func (q *Question) correctText() string {
	switch q.Type {
	case questionChoice, questionWager:
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Answers) {
			return q.Answers[q.CorrectIndex]
		}
		return strconv.Itoa(q.CorrectIndex)
	case questionTrueFalse:
		if q.CorrectBool {
			return "TRUE"
		}
		return "FALSE"
	case questionNumber:
		return strconv.FormatFloat(q.CorrectNumber, 'f', -1, 64)
	case questionText:
		if len(q.CorrectTexts) > 0 {
			return q.CorrectTexts[0]
		}
	}
	return "N/A"
}

// hasOptions reports whether clients are shown a fixed option list.
func (q *Question) hasOptions() bool {
	switch q.Type {
	case questionChoice, questionPoll, questionWager:
		return true
	}
	return false
}

// displayAnswers is the option list sent with the question, if any.
// True/false questions always render the same two options.
func (q *Question) displayAnswers() []string {
	if q.hasOptions() {
		return q.Answers
	}
	if q.Type == questionTrueFalse {
		return []string{"TRUE", "FALSE"}
	}
	return nil
}

// ─────────────────────────── Answer values ─────────────────────────── //

// Answer kinds for the tagged submission variant.
const (
	answerNone = iota
	answerIndex
	answerBool
	answerText
	answerNumber
)

// Answer is a player submission, decoded against the question's declared
// type before it ever reaches scoring.
type Answer struct {
	Kind   int
	Index  int
	Bool   bool
	Text   string
	Number float64
}

func (a Answer) isSet() bool {
	return a.Kind != answerNone
}

// value is the submission as it round-trips to clients.
func (a Answer) value() any {
	switch a.Kind {
	case answerIndex:
		return a.Index
	case answerBool:
		return a.Bool
	case answerText:
		return a.Text
	case answerNumber:
		return a.Number
	}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value())
}

// decodeAnswer validates a raw submission against the question type.
// Malformed payloads are a protocol violation and yield (zero, false).
func decodeAnswer(q *Question, raw json.RawMessage) (Answer, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return Answer{}, false
	}

	switch q.Type {
	case questionChoice, questionPoll, questionWager:
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil || idx < 0 || idx >= len(q.Answers) {
			return Answer{}, false
		}
		return Answer{Kind: answerIndex, Index: idx}, true
	case questionTrueFalse:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Answer{}, false
		}
		return Answer{Kind: answerBool, Bool: b}, true
	case questionNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return Answer{Kind: answerNumber, Number: n}, true
		}
		// Number entry fields often submit strings; accept numeric text.
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, false
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Answer{}, false
		}
		return Answer{Kind: answerNumber, Number: n}, true
	case questionText, questionOpenPoll:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, false
		}
		return Answer{Kind: answerText, Text: s}, true
	}

	return Answer{}, false
}

// ─────────────────────────── Question bank ─────────────────────────── //

type Category struct {
	Name      string      `json:"name"`
	Questions []*Question `json:"questions"`
}

type catalog struct {
	Categories map[string]*Category `json:"categories"`
}

type CategorySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

var errQuestionNotFound = errors.New("question not found")

// QuestionBank is the on-disk question catalog. Reads load the file fresh so
// admin edits show up in the next game without a restart; writes are
// serialized by the mutex.
type QuestionBank struct {
	mu   sync.Mutex
	path string
}

func newQuestionBank(cfg *Config) (*QuestionBank, error) {
	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return nil, err
	}

	bank := &QuestionBank{
		path: filepath.Join(cfg.dataDir, "questions.json"),
	}

	if _, err := os.Stat(bank.path); errors.Is(err, os.ErrNotExist) {
		if err := bank.save(defaultCatalog()); err != nil {
			return nil, err
		}
		logf(cfg, "BANK: Seeded default question bank at %s", bank.path)
	}

	return bank, nil
}

func (b *QuestionBank) load() (*catalog, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, err
	}

	var cat catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if cat.Categories == nil {
		cat.Categories = make(map[string]*Category)
	}

	return &cat, nil
}

func (b *QuestionBank) save(cat *catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(b.path, data, 0o644)
}

// Categories lists category summaries for the lobby's game setup screen.
func (b *QuestionBank) Categories() ([]CategorySummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return nil, err
	}

	summaries := make([]CategorySummary, 0, len(cat.Categories))
	for id, c := range cat.Categories {
		summaries = append(summaries, CategorySummary{
			ID:    id,
			Name:  c.Name,
			Count: len(c.Questions),
		})
	}

	return summaries, nil
}

// CategoryIDs returns every category id, used when the host selects none.
func (b *QuestionBank) CategoryIDs() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cat.Categories))
	for id := range cat.Categories {
		ids = append(ids, id)
	}

	return ids, nil
}

// QuestionsFor pools the questions of the selected categories. Unknown
// category ids are skipped.
func (b *QuestionBank) QuestionsFor(categories []string) ([]*Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return nil, err
	}

	var pool []*Question
	for _, id := range categories {
		if c, ok := cat.Categories[id]; ok {
			pool = append(pool, c.Questions...)
		}
	}

	return pool, nil
}

func (b *QuestionBank) All() (*catalog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.load()
}

func (b *QuestionBank) ReplaceAll(cat *catalog) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.save(cat)
}

func (b *QuestionBank) AddCategory(id, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return err
	}

	if _, exists := cat.Categories[id]; exists {
		return fmt.Errorf("category %q already exists", id)
	}

	cat.Categories[id] = &Category{Name: name, Questions: []*Question{}}

	return b.save(cat)
}

func (b *QuestionBank) AddQuestion(categoryID string, q *Question) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return err
	}

	c, ok := cat.Categories[categoryID]
	if !ok {
		return fmt.Errorf("category %q not found", categoryID)
	}

	if q.ID == "" {
		q.ID = "q_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	c.Questions = append(c.Questions, q)

	return b.save(cat)
}

func (b *QuestionBank) UpdateQuestion(questionID string, q *Question) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return err
	}

	for _, c := range cat.Categories {
		for i, existing := range c.Questions {
			if existing.ID == questionID {
				q.ID = questionID
				if q.CreatedBy == "" {
					q.CreatedBy = existing.CreatedBy
				}
				c.Questions[i] = q
				return b.save(cat)
			}
		}
	}

	return errQuestionNotFound
}

func (b *QuestionBank) DeleteQuestion(questionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, err := b.load()
	if err != nil {
		return err
	}

	for _, c := range cat.Categories {
		for i, existing := range c.Questions {
			if existing.ID == questionID {
				c.Questions = append(c.Questions[:i], c.Questions[i+1:]...)
				return b.save(cat)
			}
		}
	}

	return errQuestionNotFound
}

func defaultCatalog() *catalog {
	return &catalog{
		Categories: map[string]*Category{
			"general": {
				Name: "General Knowledge",
				Questions: []*Question{
					{
						ID:           "q1",
						Type:         questionChoice,
						Prompt:       "What is the largest planet in our solar system?",
						Answers:      []string{"Mars", "Jupiter", "Saturn", "Neptune"},
						CorrectIndex: 1,
						TimeLimit:    20,
					},
					{
						ID:          "q2",
						Type:        questionTrueFalse,
						Prompt:      "The Great Wall of China is visible from space.",
						CorrectBool: false,
						TimeLimit:   10,
					},
					{
						ID:            "q3",
						Type:          questionNumber,
						Prompt:        "How many planets are in our solar system?",
						CorrectNumber: 8,
						TimeLimit:     15,
					},
				},
			},
			"books": {
				Name: "Books & Literature",
				Questions: []*Question{
					{
						ID:           "b1",
						Type:         questionChoice,
						Prompt:       "Who wrote 'The Hunger Games'?",
						Answers:      []string{"J.K. Rowling", "Suzanne Collins", "Stephenie Meyer", "Veronica Roth"},
						CorrectIndex: 1,
						TimeLimit:    15,
					},
					{
						ID:           "b2",
						Type:         questionText,
						Prompt:       "Complete the title: Harry Potter and the Sorcerer's ____",
						CorrectTexts: []string{"stone"},
						TimeLimit:    20,
					},
					{
						ID:          "b3",
						Type:        questionTrueFalse,
						Prompt:      "The Hobbit was written before The Lord of the Rings.",
						CorrectBool: true,
						TimeLimit:   10,
					},
				},
			},
			"pop_culture": {
				Name: "Pop Culture",
				Questions: []*Question{
					{
						ID:           "p1",
						Type:         questionChoice,
						Prompt:       "What streaming service makes 'Stranger Things'?",
						Answers:      []string{"Hulu", "Disney+", "Netflix", "Amazon Prime"},
						CorrectIndex: 2,
						TimeLimit:    10,
					},
					{
						ID:            "p2",
						Type:          questionNumber,
						Prompt:        "What year did Minecraft officially release?",
						CorrectNumber: 2011,
						TimeLimit:     15,
					},
					{
						ID:           "p3",
						Type:         questionWager,
						Prompt:       "Which movie has the highest box office of all time?",
						Answers:      []string{"Avengers: Endgame", "Avatar", "Titanic", "Star Wars: The Force Awakens"},
						CorrectIndex: 1,
						TimeLimit:    25,
					},
				},
			},
			"hot_takes": {
				Name: "Hot Takes (Polls)",
				Questions: []*Question{
					{
						ID:        "ht1",
						Type:      questionPoll,
						Prompt:    "Which is the best pizza topping?",
						Answers:   []string{"Pepperoni", "Pineapple", "Mushrooms", "Extra Cheese"},
						TimeLimit: 15,
					},
					{
						ID:        "ht2",
						Type:      questionOpenPoll,
						Prompt:    "What's the best way to spend a weekend?",
						TimeLimit: 15,
					},
				},
			},
		},
	}
}
