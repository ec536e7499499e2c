// Package export собирает Excel-выгрузку журнала за период:
// участники, посты, построчные начисления, исключения и итоги.
package export

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"matsuni.ru/matsuni-bot/internal/common"
	"matsuni.ru/matsuni-bot/internal/features/exclusion"
	"matsuni.ru/matsuni-bot/internal/features/ledger"
	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/roster"
)

type memberSource interface {
	ListMembers(ctx context.Context, activeOnly bool) ([]*roster.Member, error)
}

type ledgerSource interface {
	Posts(ctx context.Context, startDate, endDate string) ([]*ledger.PostRecord, error)
	Activities(ctx context.Context, startDate, endDate string) ([]*ledger.ActivityRecord, error)
}

type exclusionSource interface {
	ListExclusions(ctx context.Context) ([]*exclusion.Exclusion, error)
}

type reportSource interface {
	BuildPeriodReport(ctx context.Context, startDate, endDate string) (*report.PeriodReport, error)
}

type Service struct {
	members    memberSource
	ledger     ledgerSource
	exclusions exclusionSource
	reports    reportSource
}

func NewService(members memberSource, l ledgerSource, exclusions exclusionSource, reports reportSource) *Service {
	return &Service{members: members, ledger: l, exclusions: exclusions, reports: reports}
}

// BuildWorkbook собирает книгу Excel за период и возвращает её байты.
func (s *Service) BuildWorkbook(ctx context.Context, startDate, endDate string) ([]byte, error) {
	if err := common.ValidatePeriod(startDate, endDate); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeMembers(ctx, f); err != nil {
		return nil, err
	}
	if err := s.writePosts(ctx, f, startDate, endDate); err != nil {
		return nil, err
	}
	if err := s.writeActivities(ctx, f, startDate, endDate); err != nil {
		return nil, err
	}
	if err := s.writeExclusions(ctx, f); err != nil {
		return nil, err
	}
	if err := s.writeTotals(ctx, f, startDate, endDate); err != nil {
		return nil, err
	}

	// Лист по умолчанию больше не нужен
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("ошибка удаления листа: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи книги: %w", err)
	}

	log.WithFields(log.Fields{
		"start": startDate,
		"end":   endDate,
		"bytes": buf.Len(),
	}).Info("Excel-выгрузка собрана")
	return buf.Bytes(), nil
}

func (s *Service) writeMembers(ctx context.Context, f *excelize.File) error {
	members, err := s.members.ListMembers(ctx, false)
	if err != nil {
		return err
	}

	rows := [][]interface{}{{"Username", "Дата добавления", "Статус"}}
	for _, m := range members {
		rows = append(rows, []interface{}{m.Username, m.JoinDate, m.Status})
	}
	return writeSheet(f, "Участники", rows)
}

func (s *Service) writePosts(ctx context.Context, f *excelize.File, startDate, endDate string) error {
	posts, err := s.ledger.Posts(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	rows := [][]interface{}{{"ID", "Имя", "Дата", "Тип"}}
	for _, p := range posts {
		rows = append(rows, []interface{}{p.ID, p.Name, p.PostDate, p.PostType})
	}
	return writeSheet(f, "Посты", rows)
}

func (s *Service) writeActivities(ctx context.Context, f *excelize.File, startDate, endDate string) error {
	activities, err := s.ledger.Activities(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	rows := [][]interface{}{{"Пост", "Username", "Лайк", "Комментарий", "Матсуни", "Дата"}}
	for _, a := range activities {
		rows = append(rows, []interface{}{a.PostID, a.Username, boolMark(a.HasLike), boolMark(a.HasComment), a.Matsuni, a.EntryDate})
	}
	return writeSheet(f, "Активность", rows)
}

func (s *Service) writeExclusions(ctx context.Context, f *excelize.File) error {
	exclusions, err := s.exclusions.ListExclusions(ctx)
	if err != nil {
		return err
	}

	rows := [][]interface{}{{"Username", "Пост", "Причина"}}
	for _, e := range exclusions {
		rows = append(rows, []interface{}{e.Username, e.PostName, e.Reason})
	}
	return writeSheet(f, "Исключения", rows)
}

func (s *Service) writeTotals(ctx context.Context, f *excelize.File, startDate, endDate string) error {
	rpt, err := s.reports.BuildPeriodReport(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Период", rpt.Period},
		{"Дней", rpt.TotalDays},
		{"Участников", rpt.TotalMembers},
		{"Всего матсуни", rpt.TotalMatsuni},
		{},
		{"Место", "Username", "Дней активности", "Матсуни", "Среднее", "Эффективность %", "Уровень"},
	}
	for _, m := range rpt.Members {
		rows = append(rows, []interface{}{m.Rank, m.Username, m.DaysActive, m.TotalMatsuni, m.AvgMatsuni, m.Efficiency, m.ActivityLevel})
	}
	return writeSheet(f, "Итоги", rows)
}

func writeSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("ошибка создания листа %s: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("ошибка адресации ячейки: %w", err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("ошибка записи строки листа %s: %w", name, err)
		}
	}
	return nil
}

func boolMark(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}
