package handlers

import (
	"net/http"
	"time"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
)

type LastSyncHandler struct {
	Repo entity.SyncLogRepositoryInterface
}

func NewLastSyncHandler(repo entity.SyncLogRepositoryInterface) *LastSyncHandler {
	return &LastSyncHandler{Repo: repo}
}

type lastSyncResponse struct {
	Success  bool    `json:"success"`
	LastSync *string `json:"last_sync"`
}

// Handle: GET /last-sync, quando terminou a última sincronização.
func (h *LastSyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	lastSync, err := h.Repo.FindLast(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:   "erro ao buscar o último sync",
			Details: err.Error(),
		})
		return
	}

	resp := lastSyncResponse{Success: true}
	if lastSync != nil {
		ts := lastSync.Timestamp.UTC().Format(time.RFC3339)
		resp.LastSync = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}
