package app

import (
	"context"

	"ordprov-service/internal/bank"
	"ordprov-service/internal/domain"
)

// QuestionGenerator synthesizes brand-new items through an external
// model. Implemented by internal/genai; nil when no API key is set.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, count int) ([]domain.QuizItem, error)
}

// ModeSource maps a play mode to its item supplier: the static bank for
// the classic modes, the generator for AI mode.
type ModeSource struct {
	bank      *bank.Bank
	generator QuestionGenerator
}

func NewModeSource(b *bank.Bank, generator QuestionGenerator) *ModeSource {
	return &ModeSource{bank: b, generator: generator}
}

func (s *ModeSource) Questions(ctx context.Context, mode domain.Mode) ([]domain.QuizItem, error) {
	if mode.Generated() {
		if s.generator == nil {
			return nil, domain.ErrGenerationFailed
		}
		return s.generator.GenerateQuestions(ctx, mode.ItemLimit())
	}
	return s.bank.Pick(mode.ItemLimit()), nil
}
