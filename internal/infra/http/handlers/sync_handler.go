package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/queue"
	"github.com/xavierca1/bitrix-leadsync/internal/usecase"
)

const defaultRangeDays = 5

type SyncService interface {
	SyncDay(ctx context.Context, localDate string) (int, error)
	SyncRange(ctx context.Context, days int) *usecase.RangeResult
	SyncCurrent(ctx context.Context) (count int, skipped bool, err error)
}

type FixService interface {
	Execute(ctx context.Context) (int, error)
}

type BackfillQueue interface {
	PublishBackfill(ctx context.Context, payload queue.BackfillPayload) error
}

type SyncHandler struct {
	Sync     SyncService
	Fix      FixService
	Backfill BackfillQueue
}

func NewSyncHandler(sync SyncService, fix FixService, backfill BackfillQueue) *SyncHandler {
	return &SyncHandler{
		Sync:     sync,
		Fix:      fix,
		Backfill: backfill,
	}
}

type syncDayResponse struct {
	Success bool   `json:"success"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
}

type syncErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HandleSyncDay: GET /sync/day?date=YYYY-MM-DD
func (h *SyncHandler) HandleSyncDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(bitrix.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, syncErrorResponse{
			Error: "parâmetro date deve ser YYYY-MM-DD",
		})
		return
	}

	count, err := h.Sync.SyncDay(r.Context(), date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:   "erro ao sincronizar leads",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, syncDayResponse{Success: true, Date: date, Count: count})
}

type syncRangeResponse struct {
	Message string            `json:"message"`
	Counts  map[string]int    `json:"counts"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// HandleSyncRange: GET /sync/range?days=N
func (h *SyncHandler) HandleSyncRange(w http.ResponseWriter, r *http.Request) {
	days := defaultRangeDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, syncErrorResponse{
				Error: "parâmetro days deve ser um inteiro positivo",
			})
			return
		}
		days = parsed
	}

	result := h.Sync.SyncRange(r.Context(), days)

	writeJSON(w, http.StatusOK, syncRangeResponse{
		Message: "Sincronização da faixa concluída",
		Counts:  result.Counts,
		Errors:  result.Errors,
	})
}

type syncCurrentResponse struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// HandleSyncCurrent: GET /sync/current. Single-flight, mira ontem.
func (h *SyncHandler) HandleSyncCurrent(w http.ResponseWriter, r *http.Request) {
	count, skipped, err := h.Sync.SyncCurrent(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:   "erro ao sincronizar leads",
			Details: err.Error(),
		})
		return
	}

	resp := syncCurrentResponse{Success: true, Skipped: skipped, Count: count}
	if skipped {
		resp.Message = "Sync já em andamento"
	}
	writeJSON(w, http.StatusOK, resp)
}

type backfillRequest struct {
	Dates []string `json:"dates"`
}

// HandleEnqueueBackfill: POST /sync/backfill. Enfileira dias para o worker.
func (h *SyncHandler) HandleEnqueueBackfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, syncErrorResponse{Error: "JSON inválido"})
		return
	}
	if len(req.Dates) == 0 {
		writeJSON(w, http.StatusBadRequest, syncErrorResponse{Error: "dates é obrigatório"})
		return
	}
	for _, date := range req.Dates {
		if _, err := time.Parse(bitrix.DateLayout, date); err != nil {
			writeJSON(w, http.StatusBadRequest, syncErrorResponse{
				Error: "toda data deve ser YYYY-MM-DD",
			})
			return
		}
	}

	payload := queue.BackfillPayload{
		EventID: uuid.NewString(),
		Dates:   req.Dates,
	}
	if err := h.Backfill.PublishBackfill(r.Context(), payload); err != nil {
		writeJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:   "erro ao enfileirar backfill",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":  true,
		"event_id": payload.EventID,
		"dates":    req.Dates,
	})
}

// HandleFixHistorical: POST /admin/fix-historical
func (h *SyncHandler) HandleFixHistorical(w http.ResponseWriter, r *http.Request) {
	fixed, err := h.Fix.Execute(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:   "erro ao corrigir leads históricos",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"fixed":   fixed,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
