package roster

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/cache"
	"matsuni.ru/matsuni-bot/internal/common"
)

// cacheNamespace — пространство ключей ростера в кэше.
// Любое изменение участников сбрасывает всё пространство.
const cacheNamespace = "members"

type repository interface {
	Create(ctx context.Context, m *Member) error
	GetByUsername(ctx context.Context, username string) (*Member, error)
	List(ctx context.Context, activeOnly bool) ([]*Member, error)
	ListJoinedBefore(ctx context.Context, date string) ([]string, error)
	UpdateStatus(ctx context.Context, username, status string) error
}

type Service struct {
	repo  repository
	cache *cache.Cache
}

// NewService создаёт сервис ростера. cache может быть nil —
// тогда все чтения идут напрямую в БД.
func NewService(repo repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// AddMember валидирует данные и добавляет участника в ростер.
func (s *Service) AddMember(ctx context.Context, username, joinDate string, telegramID *int64) (*Member, error) {
	if err := common.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := common.ValidateDate(joinDate); err != nil {
		return nil, err
	}

	m := &Member{
		Username:   username,
		JoinDate:   joinDate,
		Status:     StatusActive,
		TelegramID: telegramID,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheNamespace)

	log.WithFields(log.Fields{
		"username":  username,
		"join_date": joinDate,
	}).Info("Участник добавлен в ростер")
	return m, nil
}

// GetMember возвращает участника по username.
func (s *Service) GetMember(ctx context.Context, username string) (*Member, error) {
	return s.repo.GetByUsername(ctx, username)
}

// ListMembers возвращает участников (кэшируется).
func (s *Service) ListMembers(ctx context.Context, activeOnly bool) ([]*Member, error) {
	key := fmt.Sprintf("list:%t", activeOnly)
	data, err := s.cache.GetSet(ctx, cacheNamespace, key, func(ctx context.Context) ([]byte, error) {
		members, err := s.repo.List(ctx, activeOnly)
		if err != nil {
			return nil, err
		}
		return json.Marshal(members)
	})
	if err != nil {
		return nil, err
	}

	var members []*Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("ошибка декодирования списка участников: %w", err)
	}
	return members, nil
}

// Roster возвращает username активных участников, добавленных
// не позже даты поста. Пустой ростер — ошибка: проверять нечего.
func (s *Service) Roster(ctx context.Context, postDate string) ([]string, error) {
	if err := common.ValidateDate(postDate); err != nil {
		return nil, err
	}
	usernames, err := s.repo.ListJoinedBefore(ctx, postDate)
	if err != nil {
		return nil, err
	}
	if len(usernames) == 0 {
		return nil, common.ErrEmptyRoster
	}
	return usernames, nil
}

// SetStatus меняет статус участника (активен/неактивен).
func (s *Service) SetStatus(ctx context.Context, username, status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("неизвестный статус: %s", status)
	}
	if err := s.repo.UpdateStatus(ctx, username, status); err != nil {
		return err
	}
	s.cache.Invalidate(cacheNamespace)

	log.WithFields(log.Fields{
		"username": username,
		"status":   status,
	}).Info("Статус участника обновлён")
	return nil
}
