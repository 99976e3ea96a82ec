package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	return &Config{
		dataDir:      t.TempDir(),
		reapInterval: time.Minute,
		roomTimeout:  40 * time.Minute,
	}
}

func testBank(t *testing.T) *QuestionBank {
	t.Helper()

	bank, err := newQuestionBank(testConfig(t))
	if err != nil {
		t.Fatalf("newQuestionBank: %v", err)
	}

	return bank
}

func TestQuestionUnmarshalDefaults(t *testing.T) {
	var q Question
	raw := `{"id": "x", "question": "Pick one", "answers": ["a", "b"], "correct": 1}`
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if q.Type != questionChoice {
		t.Fatalf("default type = %q, want %q", q.Type, questionChoice)
	}
	if q.TimeLimit != defaultTimeLimit {
		t.Fatalf("default time limit = %d, want %d", q.TimeLimit, defaultTimeLimit)
	}
	if q.CorrectIndex != 1 {
		t.Fatalf("correct index = %d, want 1", q.CorrectIndex)
	}
}

func TestQuestionUnmarshalTextForms(t *testing.T) {
	var single Question
	if err := json.Unmarshal([]byte(`{"id":"a","type":"text","question":"?","correct":"stone"}`), &single); err != nil {
		t.Fatalf("single form: %v", err)
	}
	if len(single.CorrectTexts) != 1 || single.CorrectTexts[0] != "stone" {
		t.Fatalf("single form decoded as %v", single.CorrectTexts)
	}

	var many Question
	if err := json.Unmarshal([]byte(`{"id":"b","type":"text","question":"?","correct":["a","b"]}`), &many); err != nil {
		t.Fatalf("list form: %v", err)
	}
	if len(many.CorrectTexts) != 2 {
		t.Fatalf("list form decoded as %v", many.CorrectTexts)
	}
}

func TestQuestionUnmarshalUnknownType(t *testing.T) {
	var q Question
	err := json.Unmarshal([]byte(`{"id":"x","type":"essay","question":"?","correct":1}`), &q)
	if err == nil {
		t.Fatal("unknown question type accepted")
	}
}

func TestDisplayAnswersTrueFalse(t *testing.T) {
	q := &Question{Type: questionTrueFalse}

	got := q.displayAnswers()
	if len(got) != 2 || got[0] != "TRUE" || got[1] != "FALSE" {
		t.Fatalf("displayAnswers = %v", got)
	}
}

func TestDecodeAnswerBounds(t *testing.T) {
	q := &Question{Type: questionChoice, Answers: []string{"a", "b"}}

	if _, ok := decodeAnswer(q, json.RawMessage(`1`)); !ok {
		t.Fatal("valid index rejected")
	}
	if _, ok := decodeAnswer(q, json.RawMessage(`2`)); ok {
		t.Fatal("out-of-range index accepted")
	}
	if _, ok := decodeAnswer(q, json.RawMessage(`-1`)); ok {
		t.Fatal("negative index accepted")
	}
	if _, ok := decodeAnswer(q, json.RawMessage(`"a"`)); ok {
		t.Fatal("wrong kind accepted")
	}
	if _, ok := decodeAnswer(q, json.RawMessage(`null`)); ok {
		t.Fatal("null accepted")
	}
}

func TestDecodeAnswerNumericString(t *testing.T) {
	q := &Question{Type: questionNumber}

	answer, ok := decodeAnswer(q, json.RawMessage(`" 42 "`))
	if !ok {
		t.Fatal("numeric string rejected")
	}
	if answer.Number != 42 {
		t.Fatalf("decoded %v, want 42", answer.Number)
	}

	if _, ok := decodeAnswer(q, json.RawMessage(`"forty-two"`)); ok {
		t.Fatal("non-numeric string accepted")
	}
}

func TestBankSeedsDefaultCatalog(t *testing.T) {
	bank := testBank(t)

	categories, err := bank.Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 4 {
		t.Fatalf("seeded %d categories, want 4", len(categories))
	}

	pool, err := bank.QuestionsFor([]string{"general", "books"})
	if err != nil {
		t.Fatalf("QuestionsFor: %v", err)
	}
	if len(pool) != 6 {
		t.Fatalf("pooled %d questions, want 6", len(pool))
	}
}

func TestBankQuestionCRUD(t *testing.T) {
	bank := testBank(t)

	q := &Question{Type: questionTrueFalse, Prompt: "Water is wet.", CorrectBool: true}
	if err := bank.AddQuestion("general", q); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if !strings.HasPrefix(q.ID, "q_") {
		t.Fatalf("assigned id %q, want q_ prefix", q.ID)
	}

	updated := &Question{Type: questionTrueFalse, Prompt: "Water is wet?", CorrectBool: true}
	if err := bank.UpdateQuestion(q.ID, updated); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}

	if err := bank.DeleteQuestion(q.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if err := bank.DeleteQuestion(q.ID); err != errQuestionNotFound {
		t.Fatalf("second delete = %v, want errQuestionNotFound", err)
	}
}

func TestBankAddCategoryConflict(t *testing.T) {
	bank := testBank(t)

	if err := bank.AddCategory("movies", "Movies"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if err := bank.AddCategory("movies", "Movies Again"); err == nil {
		t.Fatal("duplicate category accepted")
	}
}
