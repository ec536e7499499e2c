package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/common"
)

type fakeRepo struct {
	members map[string]*Member
	created []*Member
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{members: make(map[string]*Member)}
}

func (f *fakeRepo) Create(_ context.Context, m *Member) error {
	if _, ok := f.members[m.Username]; ok {
		return common.ErrMemberExists
	}
	f.members[m.Username] = m
	f.created = append(f.created, m)
	return nil
}

func (f *fakeRepo) GetByUsername(_ context.Context, username string) (*Member, error) {
	m, ok := f.members[username]
	if !ok {
		return nil, common.ErrMemberNotFound
	}
	return m, nil
}

func (f *fakeRepo) List(_ context.Context, activeOnly bool) ([]*Member, error) {
	var out []*Member
	for _, m := range f.created {
		if activeOnly && !m.IsActive() {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) ListJoinedBefore(_ context.Context, date string) ([]string, error) {
	var out []string
	for _, m := range f.created {
		if m.IsActive() && m.JoinDate <= date {
			out = append(out, m.Username)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, username, status string) error {
	m, ok := f.members[username]
	if !ok {
		return common.ErrMemberNotFound
	}
	m.Status = status
	return nil
}

func TestAddMember(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	m, err := svc.AddMember(context.Background(), "alice", "2024-01-01", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, m.Status)

	_, err = svc.AddMember(context.Background(), "alice", "2024-01-02", nil)
	assert.ErrorIs(t, err, common.ErrMemberExists)
}

func TestAddMemberValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.AddMember(context.Background(), "плохой ник", "2024-01-01", nil)
	assert.ErrorIs(t, err, common.ErrInvalidUsername)

	_, err = svc.AddMember(context.Background(), "alice", "01.01.2024", nil)
	assert.ErrorIs(t, err, common.ErrInvalidDate)
}

func TestRosterByPostDate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.AddMember(context.Background(), "alice", "2024-01-01", nil)
	require.NoError(t, err)
	_, err = svc.AddMember(context.Background(), "bob", "2024-02-01", nil)
	require.NoError(t, err)

	// bob присоединился позже даты поста и в ростер не попадает
	roster, err := svc.Roster(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, roster)

	roster, err = svc.Roster(context.Background(), "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, roster)
}

func TestRosterEmpty(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Roster(context.Background(), "2024-01-01")
	assert.ErrorIs(t, err, common.ErrEmptyRoster)
}

func TestRosterSkipsInactive(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.AddMember(context.Background(), "alice", "2024-01-01", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(context.Background(), "alice", StatusInactive))

	_, err = svc.Roster(context.Background(), "2024-01-15")
	assert.ErrorIs(t, err, common.ErrEmptyRoster)
}

func TestSetStatusUnknown(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	err := svc.SetStatus(context.Background(), "alice", "в отпуске")
	assert.Error(t, err)
}
