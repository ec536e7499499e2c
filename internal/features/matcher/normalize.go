// Package matcher — normalize.go приводит распознанный текст к виду,
// пригодному для извлечения кандидатов.
package matcher

import "strings"

// Correction — детерминированная текстовая замена частой ошибки
// распознавания. Применяется ДО извлечения шаблонов, чтобы шаблоны
// и сопоставление работали по одной и той же нормализованной форме.
type Correction struct {
	From string
	To   string
}

// DefaultCorrections — типичные путаницы распознавателя на скриншотах:
// цифры вместо похожих букв и «разваленные» буквы.
// Порядок фиксирован: замены применяются слева направо по списку,
// результат при одинаковом входе всегда одинаковый.
func DefaultCorrections() []Correction {
	return []Correction{
		{From: "@5", To: "@s"},
		{From: "1", To: "l"},
		{From: "0", To: "o"},
		{From: "vv", To: "w"},
		{From: "rn", To: "m"},
	}
}

// normalize чистит текст: схлопывает пробелы, переводит в нижний
// регистр и применяет таблицу замен.
func normalize(text string, corrections []Correction) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ToLower(text)
	for _, c := range corrections {
		text = strings.ReplaceAll(text, c.From, c.To)
	}
	return text
}
