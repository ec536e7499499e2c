// Package scoring — engine.go содержит сам движок начисления.
package scoring

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/common"
)

// DailyLookup возвращает, сколько матсуни участнику уже начислено
// за календарный день (по другим постам этой же даты).
type DailyLookup func(ctx context.Context, username, date string) (int, error)

// Engine начисляет матсуни по правилам с учётом исключений
// и дневного потолка.
type Engine struct {
	rules Rules
}

// NewEngine создаёт движок с заданными правилами.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules возвращает действующие правила (для отчётов и логов).
func (e *Engine) Rules() Rules {
	return e.rules
}

// ScorePost начисляет матсуни за один пост.
//
// excluded — уже разрешённое для этого поста множество username
// (точное имя поста либо вайлдкард "all" разворачивает сервис
// исключений). Username — регистронезависимый идентификатор, поэтому
// проверка идёт по нижнему регистру с обеих сторон. Исключённый
// участник пропускается целиком: ни записи в результате, ни нулевой
// строки.
//
// lookup опрашивается на каждую запись: потолок считается по уже
// зафиксированным начислениям этой даты. Поэтому посты одной даты,
// задевающие одного участника, нужно проводить последовательно —
// порядок обработки определяет вызывающая сторона, и именно он
// решает, какой пост «съест» остаток дневного потолка.
//
// Запись без username отбраковывается отдельно и не роняет пост.
// Ошибка lookup — инфраструктурная и прерывает подсчёт целиком.
func (e *Engine) ScorePost(ctx context.Context, post Post, activities []Activity, excluded map[string]struct{}, lookup DailyLookup) ([]Award, []Skipped, error) {
	awards := make([]Award, 0, len(activities))
	var skipped []Skipped

	// Ключи исключений приводим к нижнему регистру один раз:
	// оператор мог набрать имя в любом регистре.
	excludedLower := make(map[string]struct{}, len(excluded))
	for u := range excluded {
		excludedLower[strings.ToLower(u)] = struct{}{}
	}

	for i, activity := range activities {
		if activity.Username == "" {
			skipped = append(skipped, Skipped{Index: i, Reason: common.ErrActivityNoUsername})
			continue
		}

		if _, ok := excludedLower[strings.ToLower(activity.Username)]; ok {
			log.WithFields(log.Fields{
				"username": activity.Username,
				"post":     post.Name,
			}).Info("Участник исключён из подсчёта для поста")
			continue
		}

		// Правила: комментарий доминирует, сумма не начисляется
		matsuni := 0
		switch {
		case activity.HasComment:
			matsuni = e.rules.Comment
		case activity.HasLike:
			matsuni = e.rules.LikeOnly
		}

		// Дневной потолок: подрезаем до остатка, отрицательным не бываем
		if matsuni > 0 && lookup != nil {
			prior, err := lookup(ctx, activity.Username, post.Date)
			if err != nil {
				return nil, nil, fmt.Errorf("проверка дневного потолка (%s, %s): %w", activity.Username, post.Date, err)
			}
			remaining := e.rules.MaxPerDay - prior
			if remaining < 0 {
				remaining = 0
			}
			if matsuni > remaining {
				log.WithFields(log.Fields{
					"username": activity.Username,
					"date":     post.Date,
					"clamped":  remaining,
				}).Info("Дневной потолок: начисление подрезано")
				matsuni = remaining
			}
		}

		awards = append(awards, Award{
			Username:   activity.Username,
			HasLike:    activity.HasLike,
			HasComment: activity.HasComment,
			Matsuni:    matsuni,
		})
	}

	return awards, skipped, nil
}
