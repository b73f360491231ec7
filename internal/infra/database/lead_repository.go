package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// UpsertBatch grava o lote em uma única transação. Qualquer linha que
// falhe derruba o lote inteiro (rollback); rodar de novo com o mesmo
// input produz as mesmas linhas, sem duplicata por bitrix_id.
func (r *LeadRepository) UpsertBatch(ctx context.Context, leads []*entity.Lead) ([]*entity.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO leads (
			bitrix_id,
			title,
			source_id,
			assigned_by_id,
			stage_id,
			bitrix_created_at,
			local_created_at,
			local_date,
			raw_data,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (bitrix_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			source_id = EXCLUDED.source_id,
			assigned_by_id = EXCLUDED.assigned_by_id,
			stage_id = EXCLUDED.stage_id,
			bitrix_created_at = EXCLUDED.bitrix_created_at,
			local_created_at = EXCLUDED.local_created_at,
			local_date = EXCLUDED.local_date,
			raw_data = EXCLUDED.raw_data,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("falha ao preparar upsert: %w", err)
	}
	defer stmt.Close()

	for _, lead := range leads {
		err := stmt.QueryRowContext(
			ctx,
			lead.BitrixID,
			lead.Title,
			nullString(lead.SourceID),
			lead.AssignedByID,
			nullString(lead.StageID),
			lead.BitrixCreatedAt,
			lead.LocalCreatedAt,
			lead.LocalDate,
			lead.RawData,
		).Scan(
			&lead.ID,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("falha no upsert do lead %s: %w", lead.BitrixID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao commitar lote: %w", err)
	}

	return leads, nil
}

func (r *LeadRepository) FindByBitrixIDs(ctx context.Context, bitrixIDs []string) ([]*entity.Lead, error) {
	if len(bitrixIDs) == 0 {
		return nil, nil
	}

	query := selectLeadColumns + ` WHERE bitrix_id = ANY($1)`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(bitrixIDs))
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar leads por bitrix_id: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *LeadRepository) ListByLocalDate(ctx context.Context, localDate string) ([]*entity.Lead, error) {
	query := selectLeadColumns + ` WHERE local_date = $1 ORDER BY local_created_at`

	rows, err := r.DB.QueryContext(ctx, query, localDate)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar leads de %s: %w", localDate, err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *LeadRepository) ListAll(ctx context.Context) ([]*entity.Lead, error) {
	query := selectLeadColumns + ` ORDER BY bitrix_created_at`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// UpdateLocalDates aplica as correções de dia em uma transação só.
func (r *LeadRepository) UpdateLocalDates(ctx context.Context, changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE leads
		SET local_date = $2, updated_at = NOW()
		WHERE bitrix_id = $1
	`)
	if err != nil {
		return fmt.Errorf("falha ao preparar update: %w", err)
	}
	defer stmt.Close()

	for bitrixID, localDate := range changes {
		if _, err := stmt.ExecContext(ctx, bitrixID, localDate); err != nil {
			return fmt.Errorf("falha ao corrigir lead %s: %w", bitrixID, err)
		}
	}

	return tx.Commit()
}

const selectLeadColumns = `
	SELECT
		id,
		bitrix_id,
		title,
		source_id,
		assigned_by_id,
		stage_id,
		bitrix_created_at,
		local_created_at,
		local_date,
		raw_data,
		created_at,
		updated_at
	FROM leads`

func scanLeads(rows *sql.Rows) ([]*entity.Lead, error) {
	var leads []*entity.Lead
	for rows.Next() {
		var lead entity.Lead
		var sourceID, stageID sql.NullString

		err := rows.Scan(
			&lead.ID,
			&lead.BitrixID,
			&lead.Title,
			&sourceID,
			&lead.AssignedByID,
			&stageID,
			&lead.BitrixCreatedAt,
			&lead.LocalCreatedAt,
			&lead.LocalDate,
			&lead.RawData,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("falha ao escanear lead: %w", err)
		}

		lead.SourceID = sourceID.String
		lead.StageID = stageID.String
		leads = append(leads, &lead)
	}
	return leads, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
