package bitrix

import (
	"github.com/xavierca1/bitrix-leadsync/internal/entity"
)

// ToLead converte um deal validado para a forma persistida, resolvendo o
// dia local no caminho. Timestamp imprestável descarta só este item.
func ToLead(deal *Deal) (*entity.Lead, error) {
	day, err := ResolveLocalDay(deal.DateCreate)
	if err != nil {
		return nil, err
	}

	return &entity.Lead{
		BitrixID:        deal.ID,
		Title:           deal.Title,
		SourceID:        deal.SourceID,
		AssignedByID:    deal.AssignedByID,
		StageID:         deal.StageID,
		BitrixCreatedAt: day.CreatedAt,
		LocalCreatedAt:  day.LocalCreatedAt,
		LocalDate:       day.LocalDate,
		RawData:         string(deal.Raw),
	}, nil
}
