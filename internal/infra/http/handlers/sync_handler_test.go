package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/bitrix-leadsync/internal/infra/queue"
	"github.com/xavierca1/bitrix-leadsync/internal/usecase"
)

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) SyncDay(ctx context.Context, localDate string) (int, error) {
	args := m.Called(ctx, localDate)
	return args.Int(0), args.Error(1)
}

func (m *MockSyncService) SyncRange(ctx context.Context, days int) *usecase.RangeResult {
	args := m.Called(ctx, days)
	return args.Get(0).(*usecase.RangeResult)
}

func (m *MockSyncService) SyncCurrent(ctx context.Context) (int, bool, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Bool(1), args.Error(2)
}

type MockFixService struct {
	mock.Mock
}

func (m *MockFixService) Execute(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockBackfillQueue struct {
	mock.Mock
}

func (m *MockBackfillQueue) PublishBackfill(ctx context.Context, payload queue.BackfillPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func TestHandleSyncDay(t *testing.T) {
	sync := new(MockSyncService)
	sync.On("SyncDay", mock.Anything, "2025-02-18").Return(42, nil)

	handler := NewSyncHandler(sync, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/sync/day?date=2025-02-18", nil)
	rec := httptest.NewRecorder()

	handler.HandleSyncDay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success": true, "date": "2025-02-18", "count": 42}`, rec.Body.String())
	sync.AssertExpectations(t)
}

func TestHandleSyncDayRejectsBadDate(t *testing.T) {
	sync := new(MockSyncService)
	handler := NewSyncHandler(sync, nil, nil)

	for _, date := range []string{"", "18/02/2025", "2025-2-18", "amanhã"} {
		req := httptest.NewRequest(http.MethodGet, "/sync/day?date="+date, nil)
		rec := httptest.NewRecorder()

		handler.HandleSyncDay(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "date=%q", date)
	}
	sync.AssertNotCalled(t, "SyncDay", mock.Anything, mock.Anything)
}

func TestHandleSyncDayError(t *testing.T) {
	sync := new(MockSyncService)
	sync.On("SyncDay", mock.Anything, "2025-02-18").Return(0,
		&usecase.SyncError{Date: "2025-02-18", Err: errors.New("bitrix fora do ar")})

	handler := NewSyncHandler(sync, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/sync/day?date=2025-02-18", nil)
	rec := httptest.NewRecorder()

	handler.HandleSyncDay(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bitrix fora do ar")
}

func TestHandleSyncRangeDefaultsDays(t *testing.T) {
	sync := new(MockSyncService)
	sync.On("SyncRange", mock.Anything, 5).Return(&usecase.RangeResult{
		Counts: map[string]int{"2025-02-18": 3},
		Errors: map[string]string{"2025-02-17": "gateway timeout"},
	})

	handler := NewSyncHandler(sync, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/sync/range", nil)
	rec := httptest.NewRecorder()

	handler.HandleSyncRange(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"2025-02-18":3`)
	assert.Contains(t, rec.Body.String(), "gateway timeout")
	sync.AssertExpectations(t)
}

func TestHandleSyncRangeCustomDays(t *testing.T) {
	sync := new(MockSyncService)
	sync.On("SyncRange", mock.Anything, 30).Return(&usecase.RangeResult{Counts: map[string]int{}})

	handler := NewSyncHandler(sync, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/sync/range?days=30", nil)
	rec := httptest.NewRecorder()

	handler.HandleSyncRange(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sync.AssertExpectations(t)
}

func TestHandleSyncRangeRejectsBadDays(t *testing.T) {
	sync := new(MockSyncService)
	handler := NewSyncHandler(sync, nil, nil)

	for _, days := range []string{"0", "-3", "muitos"} {
		req := httptest.NewRequest(http.MethodGet, "/sync/range?days="+days, nil)
		rec := httptest.NewRecorder()

		handler.HandleSyncRange(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%q", days)
	}
	sync.AssertNotCalled(t, "SyncRange", mock.Anything, mock.Anything)
}

func TestHandleSyncCurrentSkipped(t *testing.T) {
	sync := new(MockSyncService)
	sync.On("SyncCurrent", mock.Anything).Return(0, true, nil)

	handler := NewSyncHandler(sync, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/sync/current", nil)
	rec := httptest.NewRecorder()

	handler.HandleSyncCurrent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"skipped":true`)
	assert.Contains(t, rec.Body.String(), "Sync já em andamento")
}

func TestHandleEnqueueBackfill(t *testing.T) {
	backfill := new(MockBackfillQueue)
	backfill.On("PublishBackfill", mock.Anything, mock.MatchedBy(func(p queue.BackfillPayload) bool {
		return p.EventID != "" && len(p.Dates) == 2 && p.Dates[0] == "2025-02-17"
	})).Return(nil)

	handler := NewSyncHandler(nil, nil, backfill)
	body := strings.NewReader(`{"dates": ["2025-02-17", "2025-02-18"]}`)
	req := httptest.NewRequest(http.MethodPost, "/sync/backfill", body)
	rec := httptest.NewRecorder()

	handler.HandleEnqueueBackfill(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "event_id")
	backfill.AssertExpectations(t)
}

func TestHandleEnqueueBackfillValidation(t *testing.T) {
	backfill := new(MockBackfillQueue)
	handler := NewSyncHandler(nil, nil, backfill)

	cases := []string{
		`não é json`,
		`{"dates": []}`,
		`{"dates": ["2025-02-17", "ontem"]}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/sync/backfill", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleEnqueueBackfill(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
	backfill.AssertNotCalled(t, "PublishBackfill", mock.Anything, mock.Anything)
}

func TestHandleFixHistorical(t *testing.T) {
	fix := new(MockFixService)
	fix.On("Execute", mock.Anything).Return(7, nil)

	handler := NewSyncHandler(nil, fix, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/fix-historical", nil)
	rec := httptest.NewRecorder()

	handler.HandleFixHistorical(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "fixed": 7}`, rec.Body.String())
}
