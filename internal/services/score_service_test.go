package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/liquidity"
	"itemliquidity/internal/shared/testutil"
	api "itemliquidity/pkg/contracts/api/v1"
)

func TestScoreService_Score(t *testing.T) {
	svc := NewScoreService(newTestCalculator(t), 7, nil)
	raw := testutil.RawChart(testutil.DailyChart(scanNow, 25, 5, 10))

	tests := []struct {
		name          string
		asOf          string
		wantLiquidity float64
		wantRefDay    string
		wantWindow    int
	}{
		{
			name:          "calculator clock",
			wantLiquidity: 39.5,
			wantRefDay:    "Jun 15, 2024",
			wantWindow:    25,
		},
		{
			name: "as of a later day",
			// The chart starts May 22, inside the window
			asOf:          "Jun 20, 2024",
			wantLiquidity: 39.5,
			wantRefDay:    "Jun 20, 2024",
			wantWindow:    25,
		},
		{
			name:          "as of a year later",
			asOf:          "Jun 15, 2025",
			wantLiquidity: 0,
			wantRefDay:    "Jun 15, 2025",
			wantWindow:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Score(context.Background(), api.ScoreRequest{
				Item:    "Mann Co. Supply Crate Key",
				Dates:   raw.Dates,
				Prices:  raw.Prices,
				Volumes: raw.Volumes,
				AsOf:    tt.asOf,
			})
			require.NoError(t, err)

			assert.Equal(t, "Mann Co. Supply Crate Key", resp.Item)
			assert.Equal(t, tt.wantLiquidity, resp.Liquidity)
			assert.Equal(t, tt.wantRefDay, resp.ReferenceDay)
			assert.Equal(t, tt.wantWindow, resp.WindowSize)
			assert.False(t, resp.ScoredAt.IsZero())
		})
	}
}

func TestScoreService_Trailing(t *testing.T) {
	svc := NewScoreService(newTestCalculator(t), 7, nil)
	raw := testutil.RawChart(testutil.DailyChart(scanNow, 25, 5, 10))

	resp, err := svc.Score(context.Background(), api.ScoreRequest{Dates: raw.Dates, Prices: raw.Prices, Volumes: raw.Volumes})
	require.NoError(t, err)

	assert.Equal(t, 5.0, resp.Trailing.AvgPrice)
	assert.Equal(t, 10.0, resp.Trailing.AvgVolume)
	assert.Equal(t, 11.43, resp.Trailing.VolumePerDay)
	assert.Equal(t, 8, resp.Trailing.DaysCounted)
}

func TestScoreService_EmptySeries(t *testing.T) {
	svc := NewScoreService(newTestCalculator(t), 7, nil)

	resp, err := svc.Score(context.Background(), api.ScoreRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Liquidity)
	assert.Zero(t, resp.SellingFrequency)
	assert.Zero(t, resp.TotalVolume)
}

func TestScoreService_Errors(t *testing.T) {
	svc := NewScoreService(newTestCalculator(t), 7, nil)

	t.Run("length mismatch", func(t *testing.T) {
		_, err := svc.Score(context.Background(), api.ScoreRequest{
			Dates:   []string{"Jan 5, 2024", "Jan 6, 2024"},
			Prices:  []string{"1.55", "1.61"},
			Volumes: []string{"120"},
		})
		assert.ErrorIs(t, err, liquidity.ErrLengthMismatch)
	})

	t.Run("malformed price", func(t *testing.T) {
		_, err := svc.Score(context.Background(), api.ScoreRequest{
			Dates:   []string{"Jan 5, 2024"},
			Prices:  []string{"cheap"},
			Volumes: []string{"1"},
		})
		var ve *liquidity.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "prices", ve.Field)
		assert.Equal(t, 0, ve.Index)
	})

	t.Run("bad as_of", func(t *testing.T) {
		_, err := svc.Score(context.Background(), api.ScoreRequest{AsOf: "2024-06-15"})
		var appErr *apierrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)
		assert.Equal(t, "as_of", appErr.Context["field"])
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := svc.ScoreRaw(ctx, "", liquidity.RawSeries{}, scanNow)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
