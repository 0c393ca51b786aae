package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"userhub/internal/common"
	"userhub/internal/domain/model"
)

// LogFilter narrows and pages log listings. Zero values mean "no filter".
type LogFilter struct {
	Type   model.LogType
	From   model.LogFrom
	Limit  int
	Offset int
}

// Table: logs (id, type, origin, data jsonb, created_at). Append-only.
type LogRepository interface {
	Create(ctx context.Context, record *model.LogRecord) error
	FindByID(ctx context.Context, id string) (*model.LogRecord, error)
	FindAll(ctx context.Context, filter LogFilter) ([]*model.LogRecord, error)
}

type pgLogRepository struct {
	db *sql.DB
}

func NewPgLogRepository(db *sql.DB) LogRepository {
	return &pgLogRepository{db: db}
}

func (r *pgLogRepository) Create(ctx context.Context, record *model.LogRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("pgLogRepository.Create marshal: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO logs (id, type, origin, data) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		record.ID, record.Type, record.From, data,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgLogRepository.Create: %w", err)
	}
	return nil
}

func (r *pgLogRepository) FindByID(ctx context.Context, id string) (*model.LogRecord, error) {
	record := &model.LogRecord{}
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, type, origin, data, created_at FROM logs WHERE id = $1`, id,
	).Scan(&record.ID, &record.Type, &record.From, &data, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLogRepository.FindByID: %w", err)
	}
	if err := json.Unmarshal(data, &record.Data); err != nil {
		return nil, fmt.Errorf("pgLogRepository.FindByID unmarshal: %w", err)
	}
	return record, nil
}

func (r *pgLogRepository) FindAll(ctx context.Context, filter LogFilter) ([]*model.LogRecord, error) {
	query := `SELECT id, type, origin, data, created_at FROM logs
	          WHERE ($1 = '' OR type = $1) AND ($2 = '' OR origin = $2)
	          ORDER BY created_at DESC
	          LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, string(filter.Type), string(filter.From), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("pgLogRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var records []*model.LogRecord
	for rows.Next() {
		record := &model.LogRecord{}
		var data []byte
		if err := rows.Scan(&record.ID, &record.Type, &record.From, &data, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgLogRepository.FindAll: %w", err)
		}
		if err := json.Unmarshal(data, &record.Data); err != nil {
			return nil, fmt.Errorf("pgLogRepository.FindAll unmarshal: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLogRepository.FindAll: %w", err)
	}
	return records, nil
}
