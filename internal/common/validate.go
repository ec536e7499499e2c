// Package common — validate.go проверяет данные на границе:
// всё, что приходит от оператора или из внешних источников,
// валидируется до попадания в БД и движок подсчёта.
package common

import (
	"regexp"
	"time"
)

// usernameRe — допустимый формат username: латиница, цифры, точки, подчёркивания.
// Такой же формат использует Instagram для хендлов.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// ValidateUsername проверяет формат username (без @).
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateDate проверяет дату в формате ГГГГ-ММ-ДД.
func ValidateDate(dateStr string) error {
	if _, err := time.Parse(DateLayout, dateStr); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ValidatePeriod проверяет обе даты и их порядок.
// Сравнение строк корректно: ISO-формат лексикографически упорядочен.
func ValidatePeriod(startDate, endDate string) error {
	if err := ValidateDate(startDate); err != nil {
		return err
	}
	if err := ValidateDate(endDate); err != nil {
		return err
	}
	if startDate > endDate {
		return ErrInvalidPeriod
	}
	return nil
}
