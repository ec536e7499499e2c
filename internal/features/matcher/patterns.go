// Package matcher — patterns.go описывает шаблоны извлечения кандидатов.
// Список шаблонов — это данные конфигурации, а не зашитая логика:
// новая соцсеть или локаль добавляется новым элементом списка,
// алгоритм сопоставления при этом не меняется.
package matcher

import (
	"fmt"
	"regexp"
)

// Pattern — один шаблон извлечения username из распознанного текста.
// Expr обязан содержать ровно одну группу захвата — сам кандидат.
type Pattern struct {
	Name string // для логов и диагностики
	Expr string
}

// DefaultPatterns — формы, в которых username встречается на скриншотах
// соцсетей: @-хендл, "username:" перед комментарием и маркеры
// лайков в русской и английской локалях Instagram.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Name: "handle", Expr: `@([a-z0-9_.]+)`},
		{Name: "comment-author", Expr: `([a-z0-9_.]+)\s*:`},
		{Name: "ru-likes", Expr: `([a-z0-9_.]+)\s*любит`},
		{Name: "ru-liked-by", Expr: `([a-z0-9_.]+)\s*нравится`},
		{Name: "en-likes", Expr: `([a-z0-9_.]+)\s+likes`},
		{Name: "en-loves", Expr: `([a-z0-9_.]+)\s+loves`},
	}
}

// compilePatterns компилирует шаблоны без учёта регистра.
func compilePatterns(patterns []Pattern) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p.Expr)
		if err != nil {
			return nil, fmt.Errorf("шаблон %q: %w", p.Name, err)
		}
		if re.NumSubexp() != 1 {
			return nil, fmt.Errorf("шаблон %q: нужна ровно одна группа захвата", p.Name)
		}
		out = append(out, re)
	}
	return out, nil
}

// extractTokens прогоняет все шаблоны по тексту один раз и возвращает
// объединение найденных кандидатов в порядке первой встречи (без дублей).
func extractTokens(patterns []*regexp.Regexp, text string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			token := m[1]
			if token == "" {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}
