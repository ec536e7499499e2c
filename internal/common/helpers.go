// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, работа с датами и временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// DateLayout — единый формат дат во всём проекте (и в БД, и в диалогах).
// ISO-формат выбран не случайно: лексикографическое сравнение строк
// ГГГГ-ММ-ДД совпадает с календарным порядком.
const DateLayout = "2006-01-02"

// PluralizeMatsuni возвращает правильную форму слова «матсуни».
// Слово несклоняемое, но оставляем функцию для симметрии с остальными
// и на случай смены терминологии.
func PluralizeMatsuni(n int) string {
	return "матсуни"
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
//
// Правила:
//   - 1, 21, 31 → "день"
//   - 2-4, 22-24 → "дня"
//   - 5-20, 25-30 → "дней"
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}

// PluralizeMembers возвращает правильную форму слова «участник».
func PluralizeMembers(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "участник"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "участника"
	}
	return "участников"
}

// GetMoscowTime возвращает текущее время в часовом поясе Москвы (Europe/Moscow).
// Все даты постов и проверок считаются по Москве.
func GetMoscowTime() time.Time {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить — используем UTC+3 вручную
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return time.Now().In(loc)
}

// GetMoscowDate возвращает текущую дату строкой ГГГГ-ММ-ДД по Москве.
func GetMoscowDate() string {
	return GetMoscowTime().Format(DateLayout)
}

// DaysInPeriod возвращает количество дней в периоде, включая обе границы.
// Даты должны быть заранее провалидированы через ValidateDate.
func DaysInPeriod(startDate, endDate string) int {
	start, err1 := time.Parse(DateLayout, startDate)
	end, err2 := time.Parse(DateLayout, endDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения времени проверки в отчётах.
func FormatDateTime(t time.Time) string {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// FormatPeriod собирает человекочитаемую строку периода: "2024-01-01 - 2024-01-31".
func FormatPeriod(startDate, endDate string) string {
	return fmt.Sprintf("%s - %s", startDate, endDate)
}
