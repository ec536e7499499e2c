// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: еженедельный отчёт операторам
// и ночная очистка просроченных сессий.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/common"
	"matsuni.ru/matsuni-bot/internal/features/admin"
	"matsuni.ru/matsuni-bot/internal/features/report"
)

type reportSource interface {
	BuildPeriodReport(ctx context.Context, startDate, endDate string) (*report.PeriodReport, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron         *cron.Cron
	reports      reportSource
	adminService *admin.Service
	adminIDs     []int64
	sendFunc     func(userID int64, text string)
	formatFunc   func(rpt *report.PeriodReport) string
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(
	reports reportSource,
	adminService *admin.Service,
	adminIDs []int64,
	sendFunc func(userID int64, text string),
	formatFunc func(rpt *report.PeriodReport) string,
) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		reports:      reports,
		adminService: adminService,
		adminIDs:     adminIDs,
		sendFunc:     sendFunc,
		formatFunc:   formatFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Еженедельный отчёт по понедельникам в 10:00 по Москве
	s.cron.AddFunc("0 10 * * 1", func() {
		log.Info("[CRON] Еженедельный отчёт")
		s.sendWeeklyReport(ctx)
	})

	// Ночная очистка просроченных сессий в 03:00
	s.cron.AddFunc("0 3 * * *", func() {
		log.Debug("[CRON] Очистка сессий")
		deleted, err := s.adminService.CleanupExpired(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка очистки сессий")
			return
		}
		if deleted > 0 {
			log.WithField("deleted", deleted).Info("[CRON] Просроченные сессии удалены")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// sendWeeklyReport строит отчёт за прошедшие 7 дней и рассылает операторам.
func (s *Scheduler) sendWeeklyReport(ctx context.Context) {
	now := common.GetMoscowTime()
	end := now.AddDate(0, 0, -1).Format(common.DateLayout)
	start := now.AddDate(0, 0, -7).Format(common.DateLayout)

	rpt, err := s.reports.BuildPeriodReport(ctx, start, end)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка построения еженедельного отчёта")
		return
	}

	text := s.formatFunc(rpt)
	for _, id := range s.adminIDs {
		s.sendFunc(id, text)
	}
	log.WithFields(log.Fields{
		"period": rpt.Period,
		"admins": len(s.adminIDs),
	}).Info("[CRON] Еженедельный отчёт разослан")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
