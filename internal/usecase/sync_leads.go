package usecase

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/http/middleware"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/queue"
)

const (
	// Retry só na gravação: até 3 tentativas com backoff exponencial.
	maxPersistAttempts = 3
	baseRetryDelay     = 100 * time.Millisecond

	// Limiar de alerta de drift: muitos descartes numa passada indicam
	// mudança de schema no Bitrix, não lixo pontual.
	driftMinDropped = 5
	driftRatio      = 0.2
)

type SyncLeadsUseCase struct {
	Repo        entity.LeadRepositoryInterface
	SyncLogRepo entity.SyncLogRepositoryInterface
	Bitrix      BitrixGateway
	Queue       QueueProducerInterface
	Alerts      AlertService

	// Filtros fixos de negócio (SOURCE_ID, CREATED_BY_ID, CATEGORY_ID)
	// aplicados em toda busca, além do BEGINDATE do dia.
	Filters map[string]string

	now     func() time.Time
	syncing atomic.Bool
}

func NewSyncLeadsUseCase(
	repo entity.LeadRepositoryInterface,
	syncLogRepo entity.SyncLogRepositoryInterface,
	bitrixClient BitrixGateway,
	producer QueueProducerInterface,
	alerts AlertService,
	filters map[string]string,
) *SyncLeadsUseCase {
	return &SyncLeadsUseCase{
		Repo:        repo,
		SyncLogRepo: syncLogRepo,
		Bitrix:      bitrixClient,
		Queue:       producer,
		Alerts:      alerts,
		Filters:     filters,
		now:         time.Now,
	}
}

// SyncDay sincroniza todos os leads do dia local informado e devolve
// quantos foram confirmados no banco depois da gravação (não quantos
// foram enviados). A janela remota cobre o dia e o seguinte; cada lead
// é re-bucketado e os que não pertencem ao dia são deixados de fora
// (entram no sync do dia deles).
func (uc *SyncLeadsUseCase) SyncDay(ctx context.Context, localDate string) (int, error) {
	started := uc.now()

	window, err := bitrix.QueryWindow(localDate)
	if err != nil {
		middleware.RecordSyncRun("failed", uc.now().Sub(started))
		return 0, &SyncError{Date: localDate, Err: err}
	}

	log.Printf("🔎 Buscando leads do Bitrix para %s...", localDate)

	var deals []*bitrix.Deal
	fetched := 0
	dropped := 0
	for _, remoteDay := range window {
		dayDeals, dayDropped, err := uc.Bitrix.FetchLeads(ctx, uc.dayFilters(remoteDay))
		if err != nil {
			middleware.RecordIntegrationError("bitrix")
			middleware.RecordSyncRun("failed", uc.now().Sub(started))
			return 0, &SyncError{Date: localDate, Err: err}
		}
		deals = append(deals, dayDeals...)
		fetched += len(dayDeals) + dayDropped
		dropped += dayDropped
	}
	if dropped > 0 {
		middleware.RecordDroppedLeads("validation", dropped)
	}

	leads := make([]*entity.Lead, 0, len(deals))
	for _, deal := range deals {
		lead, err := bitrix.ToLead(deal)
		if err != nil {
			// timestamp imprestável: descarta o item, o resto segue
			log.Printf("⚠️ Lead %s descartado: %v", deal.ID, err)
			middleware.RecordDroppedLeads("timestamp", 1)
			dropped++
			continue
		}
		if lead.LocalDate != localDate {
			continue
		}
		leads = append(leads, lead)
	}

	uc.reportDrift(localDate, dropped, fetched)

	if len(leads) == 0 {
		// dia vazio ainda é um sync bem-sucedido: o /last-sync avança
		log.Printf("📭 Nenhum lead para %s", localDate)
		if err := uc.SyncLogRepo.Create(ctx, uc.now()); err != nil {
			log.Printf("⚠️ Falha ao registrar sync log: %v", err)
		}
		middleware.RecordSyncRun("success", uc.now().Sub(started))
		return 0, nil
	}

	if err := uc.persistWithRetry(ctx, leads); err != nil {
		middleware.RecordSyncRun("failed", uc.now().Sub(started))
		return 0, &SyncError{Date: localDate, Err: err}
	}

	saved := uc.verifyStored(ctx, leads)

	if err := uc.SyncLogRepo.Create(ctx, uc.now()); err != nil {
		log.Printf("⚠️ Falha ao registrar sync log: %v", err)
	}
	uc.publishResult(ctx, localDate, saved, dropped)

	middleware.RecordSyncRun("success", uc.now().Sub(started))
	middleware.RecordLeadsSaved(saved)
	log.Printf("✅ Leads salvos para %s: %d", localDate, saved)
	return saved, nil
}

// RangeResult acumula o resultado de um sync de faixa, chaveado por dia.
type RangeResult struct {
	Counts map[string]int    `json:"counts"`
	Errors map[string]string `json:"errors,omitempty"`
}

// SyncRange sincroniza hoje e os N-1 dias anteriores, em paralelo.
// Um dia ruim não derruba os outros: o erro fica registrado na data
// dele e o resto da faixa segue.
func (uc *SyncLeadsUseCase) SyncRange(ctx context.Context, days int) *RangeResult {
	result := &RangeResult{
		Counts: make(map[string]int),
		Errors: make(map[string]string),
	}

	today := uc.now().UTC()
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i).Format(bitrix.DateLayout)
		wg.Add(1)
		go func(date string) {
			defer wg.Done()
			count, err := uc.SyncDay(ctx, date)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[date] = err.Error()
				return
			}
			result.Counts[date] = count
		}(date)
	}

	wg.Wait()
	return result
}

// SyncCurrent é o sync periódico: mira ontem, porque o dia remoto
// precisa ter fechado por inteiro antes de ser confiável. Single-flight:
// se já existe um sync corrente rodando, retorna skipped=true sem fazer
// nada (pula, não enfileira).
func (uc *SyncLeadsUseCase) SyncCurrent(ctx context.Context) (count int, skipped bool, err error) {
	if !uc.syncing.CompareAndSwap(false, true) {
		log.Println("⏭️ Sync já em andamento. Pulando...")
		return 0, true, nil
	}
	// libera em qualquer saída, senão todo sync futuro viraria skip
	defer uc.syncing.Store(false)

	yesterday := uc.now().UTC().AddDate(0, 0, -1).Format(bitrix.DateLayout)
	count, err = uc.SyncDay(ctx, yesterday)
	return count, false, err
}

func (uc *SyncLeadsUseCase) dayFilters(remoteDay string) map[string]string {
	filters := map[string]string{"BEGINDATE": remoteDay}
	for field, value := range uc.Filters {
		filters[field] = value
	}
	return filters
}

func (uc *SyncLeadsUseCase) persistWithRetry(ctx context.Context, leads []*entity.Lead) error {
	var err error
	for attempt := 0; attempt < maxPersistAttempts; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * (1 << (attempt - 1))
			log.Printf("🔁 Retentativa %d da gravação em %s", attempt+1, delay)
			time.Sleep(delay)
		}
		if _, err = uc.Repo.UpsertBatch(ctx, leads); err == nil {
			return nil
		}
		log.Printf("❌ Falha ao gravar lote de %d lead(s): %v", len(leads), err)
	}
	// o erro da última tentativa propaga sem modificação
	return err
}

// verifyStored relê as chaves enviadas e devolve quantas estão mesmo no
// banco. A visão read-after-write do repositório é a fonte da verdade
// para a contagem; divergência vira warning, não erro.
func (uc *SyncLeadsUseCase) verifyStored(ctx context.Context, leads []*entity.Lead) int {
	ids := make([]string, len(leads))
	for i, lead := range leads {
		ids[i] = lead.BitrixID
	}

	stored, err := uc.Repo.FindByBitrixIDs(ctx, ids)
	if err != nil {
		log.Printf("⚠️ Releitura de consistência falhou: %v", err)
		return len(leads)
	}
	if len(stored) != len(leads) {
		log.Printf("⚠️ Divergência pós-gravação: enviados %d, encontrados %d", len(leads), len(stored))
	}
	return len(stored)
}

func (uc *SyncLeadsUseCase) reportDrift(localDate string, dropped, fetched int) {
	if dropped == 0 {
		return
	}
	log.Printf("⚠️ %d de %d lead(s) descartados em %s", dropped, fetched, localDate)

	if uc.Alerts == nil || fetched == 0 {
		return
	}
	if dropped < driftMinDropped || float64(dropped)/float64(fetched) <= driftRatio {
		return
	}
	if err := uc.Alerts.SendSyncAlert(localDate, dropped, fetched); err != nil {
		log.Printf("⚠️ Falha ao enviar alerta de drift: %v", err)
	}
}

func (uc *SyncLeadsUseCase) publishResult(ctx context.Context, localDate string, saved, dropped int) {
	if uc.Queue == nil {
		return
	}
	payload := queue.SyncResultPayload{
		EventID:    uuid.NewString(),
		Date:       localDate,
		SavedCount: saved,
		Dropped:    dropped,
		SyncedAt:   uc.now().UTC(),
	}
	if err := uc.Queue.PublishSyncResult(ctx, payload); err != nil {
		// sync já está no banco; evento perdido não é fatal
		log.Printf("⚠️ Sync gravado, mas falha ao publicar evento: %v", err)
	}
}
