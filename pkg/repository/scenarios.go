package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wercia/zeeland-agents/pkg/domain"
)

// scenarioRecordRepository stores one serialized scenario list per user
// identity. The blob is opaque here; (de)serialization is the caller's job.
type scenarioRecordRepository struct {
	db *sql.DB
}

func NewScenarioRecordRepository(db *sql.DB) *scenarioRecordRepository {
	return &scenarioRecordRepository{db: db}
}

func (s *scenarioRecordRepository) Save(ctx context.Context, userID string, data []byte) error {
	const query = `
		INSERT INTO scenario_records (user_id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, userID, data)
	if err != nil {
		return fmt.Errorf("saving scenario record: %w", err)
	}

	return nil
}

func (s *scenarioRecordRepository) GetByUserID(ctx context.Context, userID string) ([]byte, error) {
	const query = `
		SELECT data
		FROM scenario_records
		WHERE user_id = $1
	`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching scenario record by userID: %w", err)
	}

	return data, nil
}
