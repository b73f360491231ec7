package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
)

// FixHistoricalLeadsUseCase re-resolve o local_date de todos os leads já
// gravados a partir do timestamp original do Bitrix. Usado quando a regra
// de virada de dia muda (ou quando dados antigos entraram antes dela).
type FixHistoricalLeadsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

// Execute devolve quantos leads tiveram o dia corrigido.
func (uc *FixHistoricalLeadsUseCase) Execute(ctx context.Context) (int, error) {
	leads, err := uc.Repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("falha ao listar leads: %w", err)
	}

	changes := make(map[string]string)
	for _, lead := range leads {
		day := bitrix.ResolveLocalDayAt(lead.BitrixCreatedAt)
		if day.LocalDate != lead.LocalDate {
			changes[lead.BitrixID] = day.LocalDate
		}
	}

	if len(changes) == 0 {
		log.Println("📭 Nenhum lead histórico para corrigir")
		return 0, nil
	}

	if err := uc.Repo.UpdateLocalDates(ctx, changes); err != nil {
		return 0, fmt.Errorf("falha ao corrigir leads históricos: %w", err)
	}

	log.Printf("✅ %d lead(s) histórico(s) corrigido(s)", len(changes))
	return len(changes), nil
}
