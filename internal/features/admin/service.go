// Package admin — service.go содержит логику аутентификации, управления
// сессиями и state-машину пошаговых диалогов.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"matsuni.ru/matsuni-bot/internal/common"
)

const (
	sessionTTL    = 24 * time.Hour
	stateTTL      = 5 * time.Minute
	maxFailures   = 3
	failureWindow = 1 * time.Hour
)

type repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetActiveSession(ctx context.Context, userID int64) (*Session, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
	LogAttempt(ctx context.Context, userID int64, success bool) error
	CountRecentFailures(ctx context.Context, userID int64, period time.Duration) (int, error)
}

type Service struct {
	repo         repository
	passwordHash string

	statesMu sync.RWMutex
	states   map[int64]*DialogState
}

func NewService(repo repository, passwordHash string) *Service {
	return &Service{
		repo:         repo,
		passwordHash: passwordHash,
		states:       make(map[int64]*DialogState),
	}
}

// VerifyPassword проверяет пароль оператора по хешу Argon2id.
// Три неудачные попытки за час блокируют вход на час.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	failures, err := s.repo.CountRecentFailures(ctx, userID, failureWindow)
	if err != nil {
		return err
	}
	if failures >= maxFailures {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.passwordHash)

	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Error("Не удалось записать попытку входа")
	}

	if !match {
		log.WithField("user_id", userID).Warn("Неудачная попытка входа")
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Оператор вошёл в систему")
	return nil
}

// HasActiveSession проверяет, есть ли у пользователя живая сессия.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	session, err := s.repo.GetActiveSession(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки сессии")
		return false
	}
	return session != nil
}

// TouchSession обновляет время последней активности.
func (s *Service) TouchSession(ctx context.Context, userID int64) {
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).Error("Ошибка обновления активности сессии")
	}
}

// Logout закрывает сессии пользователя и сбрасывает диалог.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSessions(ctx, userID)
}

// CleanupExpired удаляет просроченные сессии. Возвращает число удалённых.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}

// GetState возвращает текущее состояние диалога либо nil.
func (s *Service) GetState(userID int64) *DialogState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || time.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string, data interface{}) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &DialogState{
		State:     stateName,
		Data:      data,
		ExpiresAt: time.Now().Add(stateTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически стойкий токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
