package bitrix

import "encoding/json"

// Deal é o payload cru de um item do crm.deal.list.
// O Bitrix devolve praticamente tudo como string.
type Deal struct {
	ID           string `json:"ID"`
	Title        string `json:"TITLE"`
	DateCreate   string `json:"DATE_CREATE"`
	StatusID     string `json:"STATUS_ID"`
	SourceID     string `json:"SOURCE_ID"`
	AssignedByID string `json:"ASSIGNED_BY_ID"`
	StageID      string `json:"STAGE_ID,omitempty"`

	Name  string       `json:"NAME,omitempty"`
	Phone []MultiField `json:"PHONE,omitempty"`
	Email []MultiField `json:"EMAIL,omitempty"`

	// Raw preserva o JSON original do item, gravado depois em raw_data.
	Raw json.RawMessage `json:"-"`
}

// MultiField é o formato dos campos múltiplos do Bitrix (telefone, email).
type MultiField struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

type listResponse struct {
	Result json.RawMessage `json:"result"`
	Total  int             `json:"total"`
	Next   int             `json:"next"`
}

// ParseDeal valida um item cru contra o schema esperado.
// Item malformado nunca derruba a página: o chamador descarta e segue.
func ParseDeal(raw json.RawMessage) (*Deal, error) {
	var deal Deal
	if err := json.Unmarshal(raw, &deal); err != nil {
		return nil, &ValidationError{Field: "payload", Message: err.Error()}
	}

	required := []struct {
		field string
		value string
	}{
		{"ID", deal.ID},
		{"TITLE", deal.Title},
		{"DATE_CREATE", deal.DateCreate},
		{"STATUS_ID", deal.StatusID},
		{"SOURCE_ID", deal.SourceID},
		{"ASSIGNED_BY_ID", deal.AssignedByID},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field, Message: "is required"}
		}
	}

	deal.Raw = raw
	return &deal, nil
}
