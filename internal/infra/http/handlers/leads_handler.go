package handlers

import (
	"net/http"
	"time"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
)

type LeadsHandler struct {
	Repo entity.LeadRepositoryInterface
}

func NewLeadsHandler(repo entity.LeadRepositoryInterface) *LeadsHandler {
	return &LeadsHandler{Repo: repo}
}

type leadsResponse struct {
	Success   bool           `json:"success"`
	Date      string         `json:"date"`
	Count     int            `json:"count"`
	Cacheable bool           `json:"cacheable"`
	Leads     []*entity.Lead `json:"leads"`
}

// HandleList: GET /leads?date=YYYY-MM-DD (default: hoje).
// Dias fechados podem ser cacheados pelo front; o dia corrente não,
// porque o sync de 5 em 5 minutos ainda muda os números.
func (h *LeadsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	today := time.Now().UTC().Format(bitrix.DateLayout)

	date := r.URL.Query().Get("date")
	if date == "" {
		date = today
	}
	if _, err := time.Parse(bitrix.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, syncErrorResponse{
			Error: "parâmetro date deve ser YYYY-MM-DD",
		})
		return
	}

	leads, err := h.Repo.ListByLocalDate(r.Context(), date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:   "erro ao buscar leads do banco",
			Details: err.Error(),
		})
		return
	}

	cacheable := date != today
	if cacheable {
		w.Header().Set("X-Can-Cache", "true")
	} else {
		w.Header().Set("X-Can-Cache", "false")
	}

	if leads == nil {
		leads = []*entity.Lead{}
	}
	writeJSON(w, http.StatusOK, leadsResponse{
		Success:   true,
		Date:      date,
		Count:     len(leads),
		Cacheable: cacheable,
		Leads:     leads,
	})
}
