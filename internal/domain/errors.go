package domain

import "errors"

var (
	// ErrUnknownMode is returned for mode tags outside the fixed set.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrNoQuestions is returned when a round cannot be filled from the bank.
	ErrNoQuestions = errors.New("no questions available")
	// ErrGenerationFailed indicates the model reply could not be parsed
	// into questions. Distinct from ErrNoQuestions: a retry may help here.
	ErrGenerationFailed = errors.New("ai question generation failed")
	// ErrGameNotStarted is returned for play actions before Start.
	ErrGameNotStarted = errors.New("game not started")
	// ErrGameFinished is returned for play actions after the round ended.
	ErrGameFinished = errors.New("game already finished")
	// ErrNoSelection is returned when advancing past an unanswered word.
	ErrNoSelection = errors.New("no option selected for current word")
	// ErrUnknownOption is returned when the picked label is not on the card.
	ErrUnknownOption = errors.New("option not present on current word")
	// ErrInvalidSubmission indicates a score/total pair that cannot come
	// from a real round.
	ErrInvalidSubmission = errors.New("invalid score submission")
)
