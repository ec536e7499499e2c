package exclusion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/cache"
	"matsuni.ru/matsuni-bot/internal/common"
)

const cacheNamespace = "exclusions"

type repository interface {
	Create(ctx context.Context, e *Exclusion) error
	ListForPost(ctx context.Context, postName string) ([]string, error)
	ListActive(ctx context.Context) ([]*Exclusion, error)
	Deactivate(ctx context.Context, username, postName string) error
}

type Service struct {
	repo  repository
	cache *cache.Cache
}

func NewService(repo repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// AddExclusion исключает участника из подсчёта для поста.
// postName == WildcardPost исключает из всех постов.
func (s *Service) AddExclusion(ctx context.Context, username, postName, reason string) error {
	if err := common.ValidateUsername(username); err != nil {
		return err
	}
	if postName == "" {
		postName = WildcardPost
	}

	e := &Exclusion{Username: username, PostName: postName, Reason: reason}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	s.cache.Invalidate(cacheNamespace)

	log.WithFields(log.Fields{
		"username":  username,
		"post_name": postName,
		"reason":    reason,
	}).Info("Добавлено исключение из подсчёта")
	return nil
}

// RemoveExclusion гасит исключение, запись остаётся в истории.
func (s *Service) RemoveExclusion(ctx context.Context, username, postName string) error {
	if postName == "" {
		postName = WildcardPost
	}
	if err := s.repo.Deactivate(ctx, username, postName); err != nil {
		return err
	}
	s.cache.Invalidate(cacheNamespace)
	return nil
}

// ExcludedSet возвращает множество username, исключённых для поста
// (включая глобальные исключения). Ключи всегда в нижнем регистре:
// username — регистронезависимый идентификатор, и движок начисления
// сравнивает по приведённой форме. Кэшируется по имени поста.
func (s *Service) ExcludedSet(ctx context.Context, postName string) (map[string]struct{}, error) {
	key := "post:" + postName
	data, err := s.cache.GetSet(ctx, cacheNamespace, key, func(ctx context.Context) ([]byte, error) {
		usernames, err := s.repo.ListForPost(ctx, postName)
		if err != nil {
			return nil, err
		}
		return json.Marshal(usernames)
	})
	if err != nil {
		return nil, err
	}

	var usernames []string
	if err := json.Unmarshal(data, &usernames); err != nil {
		return nil, fmt.Errorf("ошибка декодирования исключений: %w", err)
	}

	set := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		set[strings.ToLower(u)] = struct{}{}
	}
	return set, nil
}

// ListExclusions возвращает действующие исключения.
func (s *Service) ListExclusions(ctx context.Context) ([]*Exclusion, error) {
	return s.repo.ListActive(ctx)
}
