package exclusion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/common"
)

type fakeRepo struct {
	exclusions []*Exclusion
}

func (f *fakeRepo) Create(_ context.Context, e *Exclusion) error {
	for _, ex := range f.exclusions {
		if ex.Username == e.Username && ex.PostName == e.PostName {
			ex.Reason = e.Reason
			ex.Active = true
			return nil
		}
	}
	e.Active = true
	f.exclusions = append(f.exclusions, e)
	return nil
}

func (f *fakeRepo) ListForPost(_ context.Context, postName string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, e := range f.exclusions {
		if !e.Active {
			continue
		}
		if e.PostName != postName && e.PostName != WildcardPost {
			continue
		}
		lower := strings.ToLower(e.Username)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActive(_ context.Context) ([]*Exclusion, error) {
	var out []*Exclusion
	for _, e := range f.exclusions {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) Deactivate(_ context.Context, username, postName string) error {
	for _, e := range f.exclusions {
		if strings.EqualFold(e.Username, username) && e.PostName == postName {
			e.Active = false
		}
	}
	return nil
}

func TestExcludedSetWildcard(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	require.NoError(t, svc.AddExclusion(context.Background(), "alice", "post1", "пауза"))
	require.NoError(t, svc.AddExclusion(context.Background(), "bob", WildcardPost, "вышел"))

	// Для post1 действуют оба исключения
	set, err := svc.ExcludedSet(context.Background(), "post1")
	require.NoError(t, err)
	assert.Contains(t, set, "alice")
	assert.Contains(t, set, "bob")

	// Для post2 только глобальное
	set, err = svc.ExcludedSet(context.Background(), "post2")
	require.NoError(t, err)
	assert.NotContains(t, set, "alice")
	assert.Contains(t, set, "bob")
}

func TestExcludedSetKeysLowercased(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	// Оператор набрал имя с заглавной — ключ множества всё равно строчный
	require.NoError(t, svc.AddExclusion(context.Background(), "Alice", "post1", ""))

	set, err := svc.ExcludedSet(context.Background(), "post1")
	require.NoError(t, err)
	assert.Contains(t, set, "alice")
	assert.NotContains(t, set, "Alice")
}

func TestAddExclusionEmptyPostIsGlobal(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	require.NoError(t, svc.AddExclusion(context.Background(), "alice", "", "вышла"))
	require.Len(t, repo.exclusions, 1)
	assert.True(t, repo.exclusions[0].IsGlobal())
}

func TestAddExclusionValidatesUsername(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)
	err := svc.AddExclusion(context.Background(), "не ник", "post1", "")
	assert.ErrorIs(t, err, common.ErrInvalidUsername)
}

func TestRemoveExclusionDeactivates(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	require.NoError(t, svc.AddExclusion(context.Background(), "alice", "post1", ""))
	require.NoError(t, svc.RemoveExclusion(context.Background(), "alice", "post1"))

	set, err := svc.ExcludedSet(context.Background(), "post1")
	require.NoError(t, err)
	assert.Empty(t, set)

	// Запись не удалена, а погашена — история сохраняется
	require.Len(t, repo.exclusions, 1)
	assert.False(t, repo.exclusions[0].Active)

	active, err := svc.ListExclusions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAddExclusionReactivates(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	require.NoError(t, svc.AddExclusion(context.Background(), "alice", "post1", "пауза"))
	require.NoError(t, svc.RemoveExclusion(context.Background(), "alice", "post1"))
	require.NoError(t, svc.AddExclusion(context.Background(), "alice", "post1", "снова пауза"))

	set, err := svc.ExcludedSet(context.Background(), "post1")
	require.NoError(t, err)
	assert.Contains(t, set, "alice")

	// Повторное исключение оживляет ту же запись с новой причиной
	require.Len(t, repo.exclusions, 1)
	assert.True(t, repo.exclusions[0].Active)
	assert.Equal(t, "снова пауза", repo.exclusions[0].Reason)
}
