// Package matcher сопоставляет распознанный со скриншотов текст
// с ростером участников. Текст приходит от распознавателя «как есть» —
// с шумом, ошибками и мусором, поэтому сопоставление нечёткое.
package matcher

import (
	"fmt"
	"regexp"
	"sort"

	"matsuni.ru/matsuni-bot/internal/common"
)

// Match — одно найденное совпадение с участником ростера.
type Match struct {
	Username   string  // username участника из ростера (не токен из текста)
	Confidence float64 // уверенность в диапазоне [0,1]
}

// Matcher извлекает кандидатов из текста и нечётко сопоставляет их
// с ростером. Безопасен для одновременного использования из
// нескольких горутин: всё состояние иммутабельно после создания.
type Matcher struct {
	patterns    []*regexp.Regexp
	corrections []Correction
}

// New создаёт Matcher с шаблонами и таблицей замен по умолчанию.
func New() *Matcher {
	m, err := NewWithConfig(DefaultPatterns(), DefaultCorrections())
	if err != nil {
		// Дефолтные шаблоны проверены тестами, сюда попасть нельзя
		panic(err)
	}
	return m
}

// NewWithConfig создаёт Matcher с произвольным набором шаблонов и замен.
func NewWithConfig(patterns []Pattern, corrections []Correction) (*Matcher, error) {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, fmt.Errorf("компиляция шаблонов: %w", err)
	}
	return &Matcher{patterns: compiled, corrections: corrections}, nil
}

// Match находит участников ростера в распознанном тексте.
//
// Каждый участник встречается в результате не более одного раза —
// с максимальной из наблюдавшихся уверенностей. Результат отсортирован
// по убыванию уверенности; при равенстве порядок стабилен (кто раньше
// встретился, тот выше).
//
// minConfidence вне [0,1] — нарушение контракта: возвращается
// common.ErrConfidenceRange, значение не подрезается.
func (m *Matcher) Match(text string, roster []string, minConfidence float64) ([]Match, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return nil, common.ErrConfidenceRange
	}
	if text == "" || len(roster) == 0 {
		return []Match{}, nil
	}

	normalized := normalize(text, m.corrections)
	tokens := extractTokens(m.patterns, normalized)

	// Дедупликация по участнику: оставляем максимум уверенности,
	// позицию определяет первая встреча.
	best := make(map[string]float64)
	var order []string
	for _, token := range tokens {
		for _, member := range roster {
			confidence := Similarity(token, member)
			if confidence < minConfidence {
				continue
			}
			if prev, ok := best[member]; !ok {
				best[member] = confidence
				order = append(order, member)
			} else if confidence > prev {
				best[member] = confidence
			}
		}
	}

	matches := make([]Match, 0, len(order))
	for _, member := range order {
		matches = append(matches, Match{Username: member, Confidence: best[member]})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches, nil
}

// Usernames возвращает только имена из списка совпадений, сохраняя порядок.
func Usernames(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Username)
	}
	return out
}
