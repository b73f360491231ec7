package usecase

import (
	"context"

	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/queue"
)

// BitrixGateway é o contrato do cliente paginado do crm.deal.list.
// O segundo retorno é quantos itens foram descartados na validação.
type BitrixGateway interface {
	FetchLeads(ctx context.Context, filters map[string]string) ([]*bitrix.Deal, int, error)
}

type QueueProducerInterface interface {
	PublishSyncResult(ctx context.Context, payload queue.SyncResultPayload) error
}

// AlertService avisa o operador quando o descarte de leads indica
// drift de schema no Bitrix, e não lixo pontual.
type AlertService interface {
	SendSyncAlert(date string, dropped, fetched int) error
}
