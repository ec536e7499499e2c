// Package report — rankings.go строит дополнительные рейтинги
// поверх готового отчёта за период.
package report

import (
	"math"
	"sort"
)

// Rankings — срезы отчёта по разным осям.
type Rankings struct {
	TopTotal   []MemberTotal // топ-10 по сумме матсуни
	TopAvg     []MemberTotal // топ-10 по среднему за день
	TopDays    []MemberTotal // топ-10 по дням активности
	MostStable []MemberTotal // 5 самых «ровных» (среднее ближе всего к 1)
	Period     string
}

// BuildRankings собирает рейтинги из отчёта. Исходный отчёт не меняется.
func BuildRankings(r *PeriodReport) *Rankings {
	rankings := &Rankings{Period: r.Period}

	rankings.TopTotal = topBy(r.Members, 10, func(a, b MemberTotal) bool {
		return a.TotalMatsuni > b.TotalMatsuni
	})
	rankings.TopAvg = topBy(r.Members, 10, func(a, b MemberTotal) bool {
		return a.AvgMatsuni > b.AvgMatsuni
	})
	rankings.TopDays = topBy(r.Members, 10, func(a, b MemberTotal) bool {
		return a.DaysActive > b.DaysActive
	})

	// «Стабильность» имеет смысл только от трёх участников
	if len(r.Members) >= 3 {
		rankings.MostStable = topBy(r.Members, 5, func(a, b MemberTotal) bool {
			return math.Abs(a.AvgMatsuni-1) < math.Abs(b.AvgMatsuni-1)
		})
	}

	return rankings
}

// topBy возвращает первые n элементов копии списка,
// отсортированной стабильно по заданному критерию.
func topBy(members []MemberTotal, n int, less func(a, b MemberTotal) bool) []MemberTotal {
	cp := make([]MemberTotal, len(members))
	copy(cp, members)
	sort.SliceStable(cp, func(i, j int) bool { return less(cp[i], cp[j]) })
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
