// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять оператору понятные сообщения.
package common

import "errors"

// Ошибки валидации входных данных
var (
	// ErrInvalidUsername — username не соответствует формату [A-Za-z0-9_.]+
	ErrInvalidUsername = errors.New("некорректный username: допустимы буквы, цифры, точки и подчёркивания")
	// ErrInvalidDate — дата не в формате ГГГГ-ММ-ДД
	ErrInvalidDate = errors.New("некорректная дата: нужен формат ГГГГ-ММ-ДД")
	// ErrInvalidPeriod — начальная дата позже конечной
	ErrInvalidPeriod = errors.New("начальная дата должна быть раньше конечной")
	// ErrConfidenceRange — min_confidence вне диапазона [0,1]
	ErrConfidenceRange = errors.New("минимальная уверенность должна быть в диапазоне [0,1]")
)

// Ошибки ростера
var (
	// ErrMemberNotFound — участник не найден в ростере
	ErrMemberNotFound = errors.New("участник не найден")
	// ErrMemberExists — участник с таким username уже есть
	ErrMemberExists = errors.New("участник с таким username уже существует")
)

// Ошибки подсчёта
var (
	// ErrActivityNoUsername — запись активности без username
	ErrActivityNoUsername = errors.New("запись активности без username")
	// ErrEmptyRoster — нет участников для проверки на дату поста
	ErrEmptyRoster = errors.New("нет участников для проверки: все добавлены позже даты поста")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
