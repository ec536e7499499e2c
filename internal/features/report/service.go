// Package report — service.go связывает агрегацию с журналом начислений
// и таблицей итогов.
package report

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// LedgerSource — источник записей журнала за период.
// Снимок берётся один раз до агрегации: сама агрегация чистая
// и ничего не блокирует.
type LedgerSource interface {
	EntriesInRange(ctx context.Context, startDate, endDate string) ([]Entry, error)
}

// TotalsSink — хранилище итогов периода. Пересчёт периода
// перезаписывает его итоги целиком.
type TotalsSink interface {
	ReplacePeriod(ctx context.Context, periodID string, members []MemberTotal) error
}

// Service строит отчёты за период.
type Service struct {
	ledger LedgerSource
	totals TotalsSink
}

// NewService создаёт сервис отчётов. totals может быть nil —
// тогда итоги не персистятся (режим «только посмотреть»).
func NewService(ledger LedgerSource, totals TotalsSink) *Service {
	return &Service{ledger: ledger, totals: totals}
}

// BuildPeriodReport собирает отчёт за период и перезаписывает
// сохранённые итоги этого периода.
func (s *Service) BuildPeriodReport(ctx context.Context, startDate, endDate string) (*PeriodReport, error) {
	entries, err := s.ledger.EntriesInRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("чтение журнала: %w", err)
	}

	rpt, err := Aggregate(entries, startDate, endDate)
	if err != nil {
		return nil, err
	}

	if s.totals != nil {
		if err := s.totals.ReplacePeriod(ctx, rpt.PeriodID(), rpt.Members); err != nil {
			// Отчёт уже построен; несохранённые итоги — не повод его терять
			log.WithError(err).WithField("period", rpt.PeriodID()).Error("Не удалось сохранить итоги периода")
		}
	}

	log.WithFields(log.Fields{
		"period":  rpt.Period,
		"members": rpt.TotalMembers,
		"matsuni": rpt.TotalMatsuni,
	}).Info("Отчёт за период построен")

	return rpt, nil
}
