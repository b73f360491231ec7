package worker

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/bitrix-leadsync/internal/usecase"
)

// SyncScheduler substitui o cron: sync corrente de 5 em 5 minutos e
// varredura da faixa histórica uma vez por dia (e uma no boot).
type SyncScheduler struct {
	sync            *usecase.SyncLeadsUseCase
	currentInterval time.Duration
	rangeInterval   time.Duration
	backfillDays    int
}

func NewSyncScheduler(sync *usecase.SyncLeadsUseCase, backfillDays int) *SyncScheduler {
	return &SyncScheduler{
		sync:            sync,
		currentInterval: 5 * time.Minute,
		rangeInterval:   24 * time.Hour,
		backfillDays:    backfillDays,
	}
}

func (s *SyncScheduler) Start(ctx context.Context) {
	log.Printf("🕒 Sync scheduler iniciado (corrente a cada %s, faixa de %d dias diária)",
		s.currentInterval, s.backfillDays)

	// varredura inicial no boot, como o cron local fazia
	s.runRange(ctx)

	currentTicker := time.NewTicker(s.currentInterval)
	defer currentTicker.Stop()
	rangeTicker := time.NewTicker(s.rangeInterval)
	defer rangeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Sync scheduler encerrado")
			return
		case <-currentTicker.C:
			s.runCurrent(ctx)
		case <-rangeTicker.C:
			s.runRange(ctx)
		}
	}
}

func (s *SyncScheduler) runCurrent(ctx context.Context) {
	count, skipped, err := s.sync.SyncCurrent(ctx)
	if err != nil {
		log.Printf("❌ Sync corrente falhou: %v", err)
		return
	}
	if skipped {
		return
	}
	log.Printf("⚙️ Sync corrente: %d lead(s)", count)
}

func (s *SyncScheduler) runRange(ctx context.Context) {
	log.Printf("⚙️ Iniciando varredura dos últimos %d dias...", s.backfillDays)
	result := s.sync.SyncRange(ctx, s.backfillDays)

	total := 0
	for _, count := range result.Counts {
		total += count
	}
	log.Printf("✅ Varredura concluída: %d lead(s) em %d dia(s), %d falha(s)",
		total, len(result.Counts), len(result.Errors))
	for date, msg := range result.Errors {
		log.Printf("❌ Dia %s: %s", date, msg)
	}
}
