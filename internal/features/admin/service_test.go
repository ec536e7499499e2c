package admin

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"matsuni.ru/matsuni-bot/internal/common"
)

type fakeRepo struct {
	sessions []*Session
	attempts []*LoginAttempt
}

func (f *fakeRepo) CreateSession(_ context.Context, s *Session) error {
	s.IsActive = true
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeRepo) GetActiveSession(_ context.Context, userID int64) (*Session, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive && s.ExpiresAt.After(time.Now()) {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) DeactivateSessions(_ context.Context, userID int64) error {
	for _, s := range f.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeRepo) UpdateActivity(_ context.Context, _ int64) error { return nil }

func (f *fakeRepo) DeleteExpired(_ context.Context) (int64, error) {
	var deleted int64
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.ExpiresAt.After(time.Now()) {
			kept = append(kept, s)
		} else {
			deleted++
		}
	}
	f.sessions = kept
	return deleted, nil
}

func (f *fakeRepo) LogAttempt(_ context.Context, userID int64, success bool) error {
	f.attempts = append(f.attempts, &LoginAttempt{
		UserID:      userID,
		AttemptTime: time.Now(),
		Success:     success,
	})
	return nil
}

func (f *fakeRepo) CountRecentFailures(_ context.Context, userID int64, period time.Duration) (int, error) {
	since := time.Now().Add(-period)
	count := 0
	for _, a := range f.attempts {
		if a.UserID == userID && !a.Success && a.AttemptTime.After(since) {
			count++
		}
	}
	return count, nil
}

// encodeArgon2id строит хеш в том же формате, что и scripts/generate_hash.go.
func encodeArgon2id(password string) string {
	salt := []byte("0123456789abcdef")
	hash := argon2.IDKey([]byte(password), salt, 3, 65536, 2, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		65536, 3, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyPassword(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, encodeArgon2id("секрет"))

	require.NoError(t, svc.VerifyPassword(context.Background(), 100, "секрет"))
	assert.True(t, svc.HasActiveSession(context.Background(), 100))
}

func TestVerifyPasswordWrong(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, encodeArgon2id("секрет"))

	err := svc.VerifyPassword(context.Background(), 100, "не секрет")
	assert.ErrorIs(t, err, common.ErrWrongPassword)
	assert.False(t, svc.HasActiveSession(context.Background(), 100))
}

func TestVerifyPasswordLockout(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, encodeArgon2id("секрет"))

	for i := 0; i < 3; i++ {
		err := svc.VerifyPassword(context.Background(), 100, "не секрет")
		assert.ErrorIs(t, err, common.ErrWrongPassword)
	}

	// Четвёртая попытка блокируется даже с верным паролем
	err := svc.VerifyPassword(context.Background(), 100, "секрет")
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)

	// Блокировка персональная
	require.NoError(t, svc.VerifyPassword(context.Background(), 200, "секрет"))
}

func TestVerifyPasswordBadHash(t *testing.T) {
	svc := NewService(&fakeRepo{}, "не хеш вовсе")
	err := svc.VerifyPassword(context.Background(), 100, "секрет")
	assert.ErrorIs(t, err, common.ErrWrongPassword)
}

func TestLogout(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, encodeArgon2id("секрет"))

	require.NoError(t, svc.VerifyPassword(context.Background(), 100, "секрет"))
	require.NoError(t, svc.Logout(context.Background(), 100))
	assert.False(t, svc.HasActiveSession(context.Background(), 100))
}

func TestDialogStates(t *testing.T) {
	svc := NewService(&fakeRepo{}, "")

	assert.Nil(t, svc.GetState(100))

	svc.SetState(100, StateNewPostName, nil)
	state := svc.GetState(100)
	require.NotNil(t, state)
	assert.Equal(t, StateNewPostName, state.State)

	svc.ClearState(100)
	assert.Nil(t, svc.GetState(100))
}

func TestDialogStateExpiry(t *testing.T) {
	svc := NewService(&fakeRepo{}, "")
	svc.SetState(100, StateNewPostName, nil)

	svc.statesMu.Lock()
	svc.states[100].ExpiresAt = time.Now().Add(-time.Second)
	svc.statesMu.Unlock()

	assert.Nil(t, svc.GetState(100))
}

func TestCleanupExpired(t *testing.T) {
	repo := &fakeRepo{sessions: []*Session{
		{UserID: 1, IsActive: true, ExpiresAt: time.Now().Add(-time.Hour)},
		{UserID: 2, IsActive: true, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := NewService(repo, "")

	deleted, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
