package app

import (
	"context"
	"time"

	"ordprov-service/internal/domain"
)

// LeaderboardSize is the top-N served per mode.
const LeaderboardSize = 20

// ScoreRepository abstracts where score records live (in-memory,
// Postgres, optionally behind a Redis cache).
type ScoreRepository interface {
	// Insert persists one record. Records are append-only.
	Insert(ctx context.Context, record *domain.ScoreRecord) error
	// TopByMode returns up to limit records for the mode, ordered by
	// percentage desc, total desc, createdAt asc.
	TopByMode(ctx context.Context, mode domain.Mode, limit int) ([]domain.ScoreRecord, error)
}

// Submission is the client's view of a finished round.
type Submission struct {
	Score      int         `json:"score"`
	Total      int         `json:"total"`
	Time       float64     `json:"time"`
	Percentage float64     `json:"percentage"`
	GuestName  string      `json:"guestName"`
	Mode       domain.Mode `json:"mode"`
}

// ScoreService contains the score submission and leaderboard use cases.
type ScoreService struct {
	repo  ScoreRepository
	clock func() time.Time
}

func NewScoreService(repo ScoreRepository) *ScoreService {
	return &ScoreService{repo: repo, clock: time.Now}
}

// NewScoreServiceWithClock is test-only for deterministic timestamps.
func NewScoreServiceWithClock(repo ScoreRepository, clock func() time.Time) *ScoreService {
	return &ScoreService{repo: repo, clock: clock}
}

// Submit persists one finished round. The percentage is always recomputed
// from score/total; the client-supplied value is a hint only and never
// reaches the leaderboard. A zero total yields zero percent.
func (s *ScoreService) Submit(ctx context.Context, sub Submission, id domain.Identity) (*domain.ScoreRecord, error) {
	if sub.Score < 0 || sub.Total < 0 || sub.Score > sub.Total {
		return nil, domain.ErrInvalidSubmission
	}
	if _, err := domain.ParseMode(string(sub.Mode)); err != nil {
		return nil, err
	}

	percentage := 0.0
	if sub.Total > 0 {
		percentage = float64(sub.Score) / float64(sub.Total) * 100
	}

	record := &domain.ScoreRecord{
		UserID:     resolveUserID(id),
		UserName:   resolveUserName(id, sub.GuestName),
		UserImage:  id.Image,
		Score:      sub.Score,
		Total:      sub.Total,
		Percentage: percentage,
		Time:       sub.Time,
		Mode:       sub.Mode,
		CreatedAt:  s.clock().UTC(),
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Leaderboard returns the top records for one mode. A mode nobody has
// played yet yields an empty slice, not an error.
func (s *ScoreService) Leaderboard(ctx context.Context, mode domain.Mode) ([]domain.ScoreRecord, error) {
	records, err := s.repo.TopByMode(ctx, mode, LeaderboardSize)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.ScoreRecord{}
	}
	return records, nil
}

func resolveUserID(id domain.Identity) string {
	if id.Subject != "" {
		return id.Subject
	}
	if id.Email != "" {
		return id.Email
	}
	return domain.GuestUserID
}

func resolveUserName(id domain.Identity, guestName string) string {
	if id.Name != "" {
		return id.Name
	}
	if guestName != "" {
		return guestName
	}
	return domain.AnonymousName
}
