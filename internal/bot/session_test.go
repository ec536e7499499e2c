package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/features/admin"
)

// Фотоальбом Telegram приходит отдельными сообщениями, которые бот
// обрабатывает в параллельных горутинах. Скриншоты не должны теряться:
// апдейты одного оператора сериализуются мьютексом userLock.
func TestAppendScreenshotConcurrentAlbum(t *testing.T) {
	const userID = int64(7)
	const screenshots = 20

	b := &Bot{
		adminService: admin.NewService(nil, ""),
		userLocks:    make(map[int64]*sync.Mutex),
	}
	b.adminService.SetState(userID, admin.StateNewPostImages, &postDraft{Name: "вибро"})

	var wg sync.WaitGroup
	for i := 0; i < screenshots; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			mu := b.userLock(userID)
			mu.Lock()
			defer mu.Unlock()

			state := b.adminService.GetState(userID)
			b.appendScreenshot(userID, state, string(rune('a'+n)))
		}(i)
	}
	wg.Wait()

	state := b.adminService.GetState(userID)
	require.NotNil(t, state)
	draft := state.Data.(*postDraft)
	assert.Len(t, draft.FileIDs, screenshots)
}

// userLock выдаёт один и тот же мьютекс на оператора и разные — на разных.
func TestUserLockPerOperator(t *testing.T) {
	b := &Bot{userLocks: make(map[int64]*sync.Mutex)}

	assert.Same(t, b.userLock(1), b.userLock(1))
	assert.NotSame(t, b.userLock(1), b.userLock(2))
}
