// Package matcher — similarity.go вычисляет схожесть двух строк.
package matcher

import "strings"

// Similarity возвращает схожесть строк в диапазоне [0,1] без учёта регистра.
//
// Шкала:
//   - 1.0 — строки равны;
//   - 0.9 — одна строка является подстрокой другой;
//   - иначе 1 - (расстояние Левенштейна / длина большей строки).
//
// Функция симметрична: Similarity(a, b) == Similarity(b, a).
// Ошибки распознавания — это обычно одиночные замены символов,
// поэтому точное расстояние Левенштейна, а не приближение: результат
// обязан быть воспроизводимым.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == b {
		return 1.0
	}

	if len(a) > 0 && len(b) > 0 && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return 0.9
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein — классическое расстояние редактирования с единичной
// стоимостью вставки, удаления и замены. Полное динамическое
// программирование по матрице (len(a)+1) x (len(b)+1).
func levenshtein(a, b string) int {
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = minOf(
				matrix[i-1][j]+1,      // удаление
				matrix[i][j-1]+1,      // вставка
				matrix[i-1][j-1]+cost, // замена
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func minOf(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
