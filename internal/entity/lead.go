package entity

import (
	"context"
	"time"
)

// Lead é o registro persistido de um deal do Bitrix24.
// A identidade é o BitrixID (chave natural, atribuída pelo Bitrix);
// o ID local é gerado pelo banco e nunca sai daqui.
type Lead struct {
	ID           string `json:"id"`
	BitrixID     string `json:"bitrix_id"`
	Title        string `json:"title"`
	SourceID     string `json:"source_id,omitempty"`
	AssignedByID string `json:"assigned_by_id"`
	StageID      string `json:"stage_id,omitempty"`

	// BitrixCreatedAt é o timestamp cru do Bitrix (UTC+3), guardado para auditoria.
	BitrixCreatedAt time.Time `json:"bitrix_created_at"`
	// LocalCreatedAt é o timestamp ajustado para o fuso local do negócio.
	LocalCreatedAt time.Time `json:"local_created_at"`
	// LocalDate (YYYY-MM-DD) é o dia usado em toda consulta por dia do dashboard.
	// Derivado do BitrixCreatedAt na ingestão; só muda via correção explícita.
	LocalDate string `json:"local_date"`

	// RawData guarda o payload original serializado, para replay forense.
	RawData string `json:"raw_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LeadRepositoryInterface interface {

	// UpsertBatch grava o lote inteiro em uma transação: ou tudo entra, ou nada.
	// Cada linha é um create-or-update pela chave natural bitrix_id.
	UpsertBatch(ctx context.Context, leads []*Lead) ([]*Lead, error)

	// FindByBitrixIDs é usado na releitura de consistência pós-gravação.
	FindByBitrixIDs(ctx context.Context, bitrixIDs []string) ([]*Lead, error)

	ListByLocalDate(ctx context.Context, localDate string) ([]*Lead, error)

	ListAll(ctx context.Context) ([]*Lead, error)

	// UpdateLocalDates corrige o local_date de leads históricos (bitrix_id -> data).
	UpdateLocalDates(ctx context.Context, changes map[string]string) error
}
