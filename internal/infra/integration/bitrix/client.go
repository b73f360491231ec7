package bitrix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const pageSize = 50

type Client struct {
	webhookURL string
	http       *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: strings.TrimRight(strings.TrimSpace(webhookURL), "/"),
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchLeads busca todos os deals do crm.deal.list que batem com os
// filtros, paginando de 50 em 50 até a página vir incompleta. Itens que
// não passam na validação são logados e descartados, sem derrubar a
// página; o segundo retorno é quantos foram descartados assim.
func (c *Client) FetchLeads(ctx context.Context, filters map[string]string) ([]*Deal, int, error) {
	if c.webhookURL == "" {
		return nil, 0, &ConfigurationError{Message: "BITRIX_WEBHOOK não configurado"}
	}

	var allDeals []*Deal
	dropped := 0
	start := 0

	for {
		items, err := c.fetchPage(ctx, filters, start)
		if err != nil {
			return nil, 0, err
		}

		for _, raw := range items {
			deal, err := ParseDeal(raw)
			if err != nil {
				log.Printf("⚠️ Bitrix: item descartado na validação: %v", err)
				dropped++
				continue
			}
			allDeals = append(allDeals, deal)
		}

		// página incompleta = acabaram os leads
		if len(items) < pageSize {
			break
		}
		start += pageSize
	}

	return allDeals, dropped, nil
}

func (c *Client) fetchPage(ctx context.Context, filters map[string]string, start int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("order[STATUS_ID]", "ASC")
	params.Set("start", strconv.Itoa(start))
	for field, value := range filters {
		params.Set("filter["+field+"]", value)
	}

	reqURL := fmt.Sprintf("%s/crm.deal.list?%s", c.webhookURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode: %w", err)}
	}

	if len(payload.Result) == 0 {
		return nil, &ProtocolError{Message: "resposta sem campo result"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(payload.Result, &items); err != nil {
		return nil, &ProtocolError{Message: "result não é uma lista"}
	}

	return items, nil
}
