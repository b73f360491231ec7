package entity

import (
	"context"
	"time"
)

// SyncLog registra quando uma sincronização terminou com sucesso.
// O dashboard consulta o último registro para exibir "última atualização".
type SyncLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

type SyncLogRepositoryInterface interface {
	Create(ctx context.Context, timestamp time.Time) error

	// FindLast retorna (nil, nil) se nunca houve sync.
	FindLast(ctx context.Context) (*SyncLog, error)
}
