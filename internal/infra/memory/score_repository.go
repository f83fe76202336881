package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ordprov-service/internal/domain"
)

// ScoreRepository is an in-memory implementation of app.ScoreRepository,
// used in tests and when no Postgres URL is configured.
type ScoreRepository struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
	seq     int
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{}
}

func (r *ScoreRepository) Insert(_ context.Context, record *domain.ScoreRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	record.ID = fmt.Sprintf("score-%d", r.seq)
	r.records = append(r.records, *record)
	return nil
}

func (r *ScoreRepository) TopByMode(_ context.Context, mode domain.Mode, limit int) ([]domain.ScoreRecord, error) {
	r.mu.RLock()
	matched := make([]domain.ScoreRecord, 0, len(r.records))
	for _, record := range r.records {
		if record.Mode == mode {
			matched = append(matched, record)
		}
	}
	r.mu.RUnlock()

	// Ranking policy: percentage desc, then total desc (more words at the
	// same hit rate ranks higher), then createdAt asc (earlier run wins).
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Percentage != matched[j].Percentage {
			return matched[i].Percentage > matched[j].Percentage
		}
		if matched[i].Total != matched[j].Total {
			return matched[i].Total > matched[j].Total
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
