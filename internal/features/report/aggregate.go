// Package report — aggregate.go сводит записи журнала в итоги периода.
package report

import (
	"fmt"
	"math"
	"sort"

	"matsuni.ru/matsuni-bot/internal/common"
)

// Aggregate сводит записи журнала за период [startDate, endDate]
// (обе границы включительно) в отчёт.
//
// Функция чистая и идемпотентная: одинаковый вход даёт байт-в-байт
// одинаковый результат, включая порядок участников. Это важно, потому
// что итоги периода пересчитываются и перезаписываются целиком.
func Aggregate(entries []Entry, startDate, endDate string) (*PeriodReport, error) {
	if err := common.ValidatePeriod(startDate, endDate); err != nil {
		return nil, fmt.Errorf("период %s..%s: %w", startDate, endDate, err)
	}

	report := &PeriodReport{
		Period:    common.FormatPeriod(startDate, endDate),
		StartDate: startDate,
		EndDate:   endDate,
		TotalDays: common.DaysInPeriod(startDate, endDate),
		Members:   []MemberTotal{},
	}

	// Группировка по участнику в порядке первой встречи.
	// ISO-даты сравниваются строково: лексикографический порядок
	// совпадает с календарным.
	type bucket struct {
		total int
		days  map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, entry := range entries {
		if entry.Date < startDate || entry.Date > endDate {
			continue
		}
		b, ok := buckets[entry.Username]
		if !ok {
			b = &bucket{days: make(map[string]struct{})}
			buckets[entry.Username] = b
			order = append(order, entry.Username)
		}
		b.total += entry.Matsuni
		b.days[entry.Date] = struct{}{}
	}

	for _, username := range order {
		b := buckets[username]
		daysActive := len(b.days)

		avg := 0.0
		if daysActive > 0 {
			avg = round2(float64(b.total) / float64(daysActive))
		}

		efficiency := 0.0
		if report.TotalDays > 0 {
			efficiency = round1(float64(daysActive) / float64(report.TotalDays) * 100)
		}

		report.Members = append(report.Members, MemberTotal{
			Username:      username,
			DaysActive:    daysActive,
			TotalMatsuni:  b.total,
			AvgMatsuni:    avg,
			Efficiency:    efficiency,
			ActivityLevel: activityLevel(avg),
		})
		report.TotalMatsuni += b.total
	}

	// Рейтинг: по убыванию суммы, стабильно при равенстве,
	// плотная нумерация 1..N без пропусков
	sort.SliceStable(report.Members, func(i, j int) bool {
		return report.Members[i].TotalMatsuni > report.Members[j].TotalMatsuni
	})
	for i := range report.Members {
		report.Members[i].Rank = i + 1
	}

	report.TotalMembers = len(report.Members)
	return report, nil
}

// activityLevel классифицирует участника по среднему за день.
func activityLevel(avg float64) string {
	switch {
	case avg >= 1.5:
		return ActivityHigh
	case avg >= 0.5:
		return ActivityMedium
	default:
		return ActivityLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
