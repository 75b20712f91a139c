package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/config"
	"github.com/Veraticus/freightflow/internal/report"
)

func TestPeriodFilter(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		settings map[string]any
		want     *report.PeriodFilter
		name     string
		wantErr  bool
	}{
		{
			name:     "nothing set shows every month",
			settings: map[string]any{},
			want:     nil,
		},
		{
			name:     "year only",
			settings: map[string]any{"revenue.year": 2024},
			want:     &report.PeriodFilter{Year: 2024},
		},
		{
			name:     "months default to the current year",
			settings: map[string]any{"revenue.months": []int{1, 2}},
			want:     &report.PeriodFilter{Year: 2025, Months: []int{1, 2}},
		},
		{
			name:     "year and months",
			settings: map[string]any{"revenue.year": 2024, "revenue.months": []int{12}},
			want:     &report.PeriodFilter{Year: 2024, Months: []int{12}},
		},
		{
			name:     "empty months select nothing",
			settings: map[string]any{"revenue.year": 2024, "revenue.months": []int{}},
			want:     &report.PeriodFilter{Year: 2024, Months: []int{}},
		},
		{
			name:     "month out of range",
			settings: map[string]any{"revenue.months": []int{13}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.settings {
				v.Set(k, val)
			}

			got, err := periodFilter(v, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRevenueVariant(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	v := viper.New()
	v.Set("revenue.from", "2024-01-01")
	v.Set("revenue.to", "31-01-2024")

	c := &config.Config{Revenue: config.RevenueConfig{ExcludeStatus: []float64{20, 30}, Percent: true}}

	rev, err := revenueVariant(v, c, now)
	require.NoError(t, err)
	assert.Nil(t, rev.Period)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rev.From)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), rev.To)
	assert.Equal(t, []float64{20, 30}, rev.ExcludeStatus)
	assert.True(t, rev.Percent)
}

func TestRevenueVariantDefaults(t *testing.T) {
	rev, err := revenueVariant(viper.New(), nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []float64{report.DefaultExcludedStatus}, rev.ExcludeStatus)
	assert.False(t, rev.Percent)
	assert.True(t, rev.From.IsZero())
	assert.True(t, rev.To.IsZero())
}

func TestRevenueVariantBadDate(t *testing.T) {
	v := viper.New()
	v.Set("revenue.from", "last tuesday")

	_, err := revenueVariant(v, nil, time.Now())
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "revenue.from")
}
