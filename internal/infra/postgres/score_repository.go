package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"

	"ordprov-service/internal/domain"
)

// ScoreRepository persists score records in Postgres. Records are
// append-only; ranking is pushed down into the query so the mode filter
// is applied before the limit, never after.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) Insert(ctx context.Context, record *domain.ScoreRecord) error {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO scores (user_id, user_name, user_image, score, total, percentage, time_spent, mode, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		record.UserID, record.UserName, nullable(record.UserImage),
		record.Score, record.Total, record.Percentage, record.Time,
		string(record.Mode), record.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	record.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *ScoreRepository) TopByMode(ctx context.Context, mode domain.Mode, limit int) ([]domain.ScoreRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, COALESCE(user_image, ''), score, total, percentage, time_spent, mode, created_at
		 FROM scores
		 WHERE mode = $1
		 ORDER BY percentage DESC, total DESC, created_at ASC
		 LIMIT $2`,
		string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ScoreRecord, 0, limit)
	for rows.Next() {
		var (
			record domain.ScoreRecord
			id     int64
			m      string
		)
		if err := rows.Scan(&id, &record.UserID, &record.UserName, &record.UserImage,
			&record.Score, &record.Total, &record.Percentage, &record.Time,
			&m, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		record.ID = strconv.FormatInt(id, 10)
		record.Mode = domain.Mode(m)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return records, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
