package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/common"
)

func TestAggregateScenarioFromLedger(t *testing.T) {
	// u1: 3+2 за два дня, u2: 1 за один день
	entries := []Entry{
		{Username: "u1", Matsuni: 3, Date: "2024-01-01"},
		{Username: "u1", Matsuni: 2, Date: "2024-01-02"},
		{Username: "u2", Matsuni: 1, Date: "2024-01-01"},
	}

	rpt, err := Aggregate(entries, "2024-01-01", "2024-01-02")
	require.NoError(t, err)

	assert.Equal(t, 2, rpt.TotalDays)
	assert.Equal(t, 2, rpt.TotalMembers)
	assert.Equal(t, 6, rpt.TotalMatsuni)
	require.Len(t, rpt.Members, 2)

	u1 := rpt.Members[0]
	assert.Equal(t, "u1", u1.Username)
	assert.Equal(t, 5, u1.TotalMatsuni)
	assert.Equal(t, 2, u1.DaysActive)
	assert.Equal(t, 2.5, u1.AvgMatsuni)
	assert.Equal(t, 1, u1.Rank)

	u2 := rpt.Members[1]
	assert.Equal(t, "u2", u2.Username)
	assert.Equal(t, 1, u2.TotalMatsuni)
	assert.Equal(t, 1, u2.DaysActive)
	assert.Equal(t, 1.0, u2.AvgMatsuni)
	assert.Equal(t, 2, u2.Rank)
}

func TestAggregateFiltersInclusive(t *testing.T) {
	entries := []Entry{
		{Username: "a", Matsuni: 1, Date: "2023-12-31"}, // до периода
		{Username: "a", Matsuni: 2, Date: "2024-01-01"}, // граница
		{Username: "a", Matsuni: 2, Date: "2024-01-31"}, // граница
		{Username: "a", Matsuni: 1, Date: "2024-02-01"}, // после
	}

	rpt, err := Aggregate(entries, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, rpt.Members, 1)
	assert.Equal(t, 4, rpt.Members[0].TotalMatsuni)
	assert.Equal(t, 2, rpt.Members[0].DaysActive)
}

func TestAggregateDistinctDays(t *testing.T) {
	// Две записи одной даты = один активный день
	entries := []Entry{
		{Username: "a", Matsuni: 1, Date: "2024-01-01"},
		{Username: "a", Matsuni: 1, Date: "2024-01-01"},
	}
	rpt, err := Aggregate(entries, "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 1, rpt.Members[0].DaysActive)
	assert.Equal(t, 2, rpt.Members[0].TotalMatsuni)
	assert.Equal(t, 2.0, rpt.Members[0].AvgMatsuni)
}

func TestAggregateEmptyLedger(t *testing.T) {
	rpt, err := Aggregate(nil, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 0, rpt.TotalMembers)
	assert.Equal(t, 0, rpt.TotalMatsuni)
	assert.NotNil(t, rpt.Members)
	assert.Empty(t, rpt.Members)
	assert.Equal(t, 31, rpt.TotalDays)
}

func TestAggregateInvalidPeriod(t *testing.T) {
	_, err := Aggregate(nil, "2024-02-01", "2024-01-01")
	assert.ErrorIs(t, err, common.ErrInvalidPeriod)

	_, err = Aggregate(nil, "не дата", "2024-01-01")
	assert.ErrorIs(t, err, common.ErrInvalidDate)
}

func TestAggregateRanksDense(t *testing.T) {
	entries := []Entry{
		{Username: "a", Matsuni: 1, Date: "2024-01-01"},
		{Username: "b", Matsuni: 3, Date: "2024-01-01"},
		{Username: "c", Matsuni: 2, Date: "2024-01-01"},
		{Username: "d", Matsuni: 2, Date: "2024-01-01"},
	}
	rpt, err := Aggregate(entries, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	// Плотная нумерация 1..N без дублей и пропусков
	seen := make(map[int]bool)
	for i, m := range rpt.Members {
		assert.Equal(t, i+1, m.Rank)
		assert.False(t, seen[m.Rank])
		seen[m.Rank] = true
	}
	assert.Equal(t, "b", rpt.Members[0].Username)
	// При равенстве сумм (c и d) порядок стабилен: кто раньше встретился
	assert.Equal(t, "c", rpt.Members[1].Username)
	assert.Equal(t, "d", rpt.Members[2].Username)
	assert.Equal(t, "a", rpt.Members[3].Username)
}

func TestAggregateIdempotent(t *testing.T) {
	entries := []Entry{
		{Username: "a", Matsuni: 2, Date: "2024-01-02"},
		{Username: "b", Matsuni: 2, Date: "2024-01-01"},
		{Username: "a", Matsuni: 1, Date: "2024-01-03"},
	}
	first, err := Aggregate(entries, "2024-01-01", "2024-01-05")
	require.NoError(t, err)
	second, err := Aggregate(entries, "2024-01-01", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestActivityLevels(t *testing.T) {
	assert.Equal(t, ActivityHigh, activityLevel(1.5))
	assert.Equal(t, ActivityHigh, activityLevel(2.0))
	assert.Equal(t, ActivityMedium, activityLevel(0.5))
	assert.Equal(t, ActivityMedium, activityLevel(1.49))
	assert.Equal(t, ActivityLow, activityLevel(0.49))
	assert.Equal(t, ActivityLow, activityLevel(0))
}

func TestAggregateEfficiency(t *testing.T) {
	entries := []Entry{
		{Username: "a", Matsuni: 1, Date: "2024-01-01"},
		{Username: "a", Matsuni: 1, Date: "2024-01-02"},
	}
	// 2 активных дня из 3 → 66.7%
	rpt, err := Aggregate(entries, "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, 66.7, rpt.Members[0].Efficiency)
}
