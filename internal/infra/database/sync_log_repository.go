package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
)

type SyncLogRepository struct {
	DB *sql.DB
}

func NewSyncLogRepository(db *sql.DB) *SyncLogRepository {
	return &SyncLogRepository{DB: db}
}

func (r *SyncLogRepository) Create(ctx context.Context, timestamp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sync_logs (timestamp) VALUES ($1)`,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar sync: %w", err)
	}
	return nil
}

func (r *SyncLogRepository) FindLast(ctx context.Context) (*entity.SyncLog, error) {
	var syncLog entity.SyncLog
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, timestamp FROM sync_logs ORDER BY timestamp DESC LIMIT 1`,
	).Scan(&syncLog.ID, &syncLog.Timestamp)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar último sync: %w", err)
	}
	return &syncLog, nil
}
