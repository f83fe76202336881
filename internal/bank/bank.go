package bank

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"ordprov-service/internal/domain"
)

// Bank is the immutable question pool loaded once at startup. It is safe
// for concurrent readers; items are never mutated after Load.
type Bank struct {
	items []domain.QuizItem
}

// Load reads the generated bank file. A missing file yields an empty bank
// rather than an error, so callers must treat "no questions" as a normal,
// presentable state.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Bank{}, nil
		}
		return nil, fmt.Errorf("read bank file: %w", err)
	}

	var items []domain.QuizItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse bank file %s: %w", path, err)
	}
	return &Bank{items: items}, nil
}

// New builds a bank from an in-memory pool (tests and demos).
func New(items []domain.QuizItem) *Bank {
	return &Bank{items: items}
}

// Len returns the raw pool size, malformed entries included.
func (b *Bank) Len() int {
	return len(b.items)
}

// Pick returns a random, size-bounded subset of the valid pool.
func (b *Bank) Pick(limit int) []domain.QuizItem {
	return Select(b.items, limit)
}

// Select filters out malformed items, shuffles the remainder uniformly,
// and truncates to limit. A limit <= 0 means unbounded. The input is
// never modified; empty input yields empty output.
//
// The shuffle is Fisher-Yates via rand.Shuffle. Randomizing a comparator
// sort instead would bias the ordering and break the uniformity the
// leaderboard modes depend on.
func Select(pool []domain.QuizItem, limit int) []domain.QuizItem {
	picked := make([]domain.QuizItem, 0, len(pool))
	for _, item := range pool {
		if item.Valid() {
			picked = append(picked, item)
		}
	}

	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	if limit > 0 && limit < len(picked) {
		picked = picked[:limit]
	}
	return picked
}
