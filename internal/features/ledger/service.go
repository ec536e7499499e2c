package ledger

import (
	"context"

	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/scoring"
)

type repository interface {
	AppendPost(ctx context.Context, post *PostRecord, activities []*ActivityRecord) error
	TotalForDay(ctx context.Context, username, date string) (int, error)
	EntriesInRange(ctx context.Context, startDate, endDate string) ([]report.Entry, error)
	ListPosts(ctx context.Context, startDate, endDate string) ([]*PostRecord, error)
	ListActivities(ctx context.Context, startDate, endDate string) ([]*ActivityRecord, error)
}

type Service struct {
	repo repository
}

func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// SavePost записывает пост и начисления в журнал.
// Нулевые начисления тоже пишутся: строка «0 матсуни» означает
// «участник замечен, но лимит уже выбран», и её видно в отчётах.
func (s *Service) SavePost(ctx context.Context, post scoring.Post, awards []scoring.Award) (*PostRecord, error) {
	rec := &PostRecord{
		Name:     post.Name,
		PostDate: post.Date,
		PostType: post.Type,
	}
	activities := make([]*ActivityRecord, 0, len(awards))
	for _, a := range awards {
		activities = append(activities, &ActivityRecord{
			Username:   a.Username,
			HasLike:    a.HasLike,
			HasComment: a.HasComment,
			Matsuni:    a.Matsuni,
		})
	}

	if err := s.repo.AppendPost(ctx, rec, activities); err != nil {
		return nil, err
	}

	total := 0
	for _, a := range awards {
		total += a.Matsuni
	}
	log.WithFields(log.Fields{
		"post":       post.Name,
		"date":       post.Date,
		"activities": len(awards),
		"matsuni":    total,
	}).Info("Пост записан в журнал")
	return rec, nil
}

// DailyLookup возвращает функцию дневного лимита для движка начисления.
func (s *Service) DailyLookup() scoring.DailyLookup {
	return func(ctx context.Context, username, date string) (int, error) {
		return s.repo.TotalForDay(ctx, username, date)
	}
}

// EntriesInRange отдаёт начисления периода (источник для отчётов).
func (s *Service) EntriesInRange(ctx context.Context, startDate, endDate string) ([]report.Entry, error) {
	return s.repo.EntriesInRange(ctx, startDate, endDate)
}

// Posts возвращает посты периода.
func (s *Service) Posts(ctx context.Context, startDate, endDate string) ([]*PostRecord, error) {
	return s.repo.ListPosts(ctx, startDate, endDate)
}

// Activities возвращает начисления периода построчно.
func (s *Service) Activities(ctx context.Context, startDate, endDate string) ([]*ActivityRecord, error) {
	return s.repo.ListActivities(ctx, startDate, endDate)
}
