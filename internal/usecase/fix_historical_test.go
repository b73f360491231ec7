package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/bitrix-leadsync/internal/entity"
)

func historicalLead(bitrixID, createdAt, localDate string) *entity.Lead {
	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		panic(err)
	}
	return &entity.Lead{
		ID:              "row-" + bitrixID,
		BitrixID:        bitrixID,
		BitrixCreatedAt: parsed,
		LocalDate:       localDate,
	}
}

func TestFixHistoricalCorrectsMisbucketedLeads(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)

	repo.On("ListAll", ctx).Return([]*entity.Lead{
		// 02:00 em Moscou pertence ao dia anterior: estava gravado errado
		historicalLead("1", "2025-02-19T02:00:00+03:00", "2025-02-19"),
		// este já está certo, não entra na correção
		historicalLead("2", "2025-02-16T21:00:00+03:00", "2025-02-16"),
	}, nil)
	repo.On("UpdateLocalDates", ctx, map[string]string{"1": "2025-02-18"}).Return(nil)

	uc := &FixHistoricalLeadsUseCase{Repo: repo}
	fixed, err := uc.Execute(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	repo.AssertExpectations(t)
}

func TestFixHistoricalNothingToFix(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)

	repo.On("ListAll", ctx).Return([]*entity.Lead{
		historicalLead("1", "2025-02-16T21:00:00+03:00", "2025-02-16"),
	}, nil)

	uc := &FixHistoricalLeadsUseCase{Repo: repo}
	fixed, err := uc.Execute(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, fixed)
	repo.AssertNotCalled(t, "UpdateLocalDates", mock.Anything, mock.Anything)
}

func TestFixHistoricalListFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)

	repo.On("ListAll", ctx).Return(nil, errors.New("connection refused"))

	uc := &FixHistoricalLeadsUseCase{Repo: repo}
	_, err := uc.Execute(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
