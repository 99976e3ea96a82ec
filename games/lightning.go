package games

// Lightning round: a possible third game mode alongside classic and bowl
// - Host picks a category; every player gets the same rapid-fire sequence of short questions
// - No per-question reveal; answers score immediately and the next question follows
// - Round ends after a fixed wall-clock window (60-90s), then a single combined reveal
// - Streak multiplier could carry across questions within the round

// Scoring sketch:
// - Flat 100 per correct, +10 per current streak step, no speed bonus (speed pressure comes from the clock)
// - Wrong answers skip forward without penalty, to keep the pace up

// Implementation details:
// - Reuses the question bank pool/shuffle; needs a question cursor per player rather than per room
// - The per-room lock stays; per-player cursors mean no shared check-then-act on answers
// - Reveal payload is the existing leaderboard message, no new client screens needed

// Open questions:
// - Do polls make sense in a lightning round? Probably skip them when pooling
// - Whether bowl-style team play combines with this at all
