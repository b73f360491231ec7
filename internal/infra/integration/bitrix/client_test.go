package bitrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealJSON(id int) string {
	return fmt.Sprintf(`{
		"ID": "%d",
		"TITLE": "Lead %d",
		"DATE_CREATE": "2025-02-16T12:00:00+03:00",
		"STATUS_ID": "NEW",
		"SOURCE_ID": "WEB",
		"ASSIGNED_BY_ID": "7",
		"STAGE_ID": "C1:NEW"
	}`, id, id)
}

func pageBody(items []string) string {
	return fmt.Sprintf(`{"result": [%s], "total": %d}`, joinItems(items), len(items))
}

func joinItems(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}

func TestFetchLeadsPaginatesUntilShortPage(t *testing.T) {
	var requestedStarts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm.deal.list", r.URL.Path)
		assert.Equal(t, "ASC", r.URL.Query().Get("order[STATUS_ID]"))
		assert.Equal(t, "2025-02-16", r.URL.Query().Get("filter[BEGINDATE]"))

		start := r.URL.Query().Get("start")
		requestedStarts = append(requestedStarts, start)

		offset, _ := strconv.Atoi(start)
		var items []string
		if offset == 0 {
			for i := 0; i < 50; i++ {
				items = append(items, dealJSON(i))
			}
		} else {
			for i := 50; i < 53; i++ {
				items = append(items, dealJSON(i))
			}
		}
		fmt.Fprint(w, pageBody(items))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	deals, dropped, err := client.FetchLeads(context.Background(), map[string]string{"BEGINDATE": "2025-02-16"})

	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	assert.Len(t, deals, 53)
	assert.Equal(t, []string{"0", "50"}, requestedStarts)

	// ordem de requisição preservada
	assert.Equal(t, "0", deals[0].ID)
	assert.Equal(t, "52", deals[52].ID)
	assert.Equal(t, "Lead 52", deals[52].Title)
}

func TestFetchLeadsDropsInvalidItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := []string{
			dealJSON(1),
			`{"ID": "2"}`, // sem os campos obrigatórios
			dealJSON(3),
		}
		fmt.Fprint(w, pageBody(items))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	deals, dropped, err := client.FetchLeads(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, deals, 2)
	assert.Equal(t, "1", deals[0].ID)
	assert.Equal(t, "3", deals[1].ID)
}

func TestFetchLeadsPreservesRawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageBody([]string{dealJSON(9)}))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	deals, _, err := client.FetchLeads(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, deals, 1)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(deals[0].Raw, &raw))
	assert.Equal(t, "9", raw["ID"])
	assert.Equal(t, "C1:NEW", raw["STAGE_ID"])
}

func TestFetchLeadsProtocolErrorOnMissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "QUERY_LIMIT_EXCEEDED"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.FetchLeads(context.Background(), nil)

	var protoErr *ProtocolError
	assert.True(t, errors.As(err, &protoErr))
}

func TestFetchLeadsProtocolErrorOnNonListResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": {"unexpected": "object"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.FetchLeads(context.Background(), nil)

	var protoErr *ProtocolError
	assert.True(t, errors.As(err, &protoErr))
}

func TestFetchLeadsTransportErrorOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.FetchLeads(context.Background(), nil)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestFetchLeadsTransportErrorOnConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // derruba antes de usar

	client := NewClient(server.URL)
	_, _, err := client.FetchLeads(context.Background(), nil)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestFetchLeadsRequiresWebhookURL(t *testing.T) {
	client := NewClient("   ")
	_, _, err := client.FetchLeads(context.Background(), nil)

	var confErr *ConfigurationError
	assert.True(t, errors.As(err, &confErr))
}
