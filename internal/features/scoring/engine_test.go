package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/common"
)

// memoryLedger имитирует журнал начислений: хранит суммы по (username, date)
// и позволяет «фиксировать» результаты, как это делает настоящий репозиторий.
type memoryLedger struct {
	totals map[string]int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{totals: make(map[string]int)}
}

func (l *memoryLedger) lookup(_ context.Context, username, date string) (int, error) {
	return l.totals[username+"|"+date], nil
}

func (l *memoryLedger) commit(date string, awards []Award) {
	for _, a := range awards {
		l.totals[a.Username+"|"+date] += a.Matsuni
	}
}

func testPost(name, date string) Post {
	return Post{ID: name + "_" + date + "_120000", Name: name, Date: date}
}

func TestScoreCommentDominates(t *testing.T) {
	e := NewEngine(DefaultRules())
	ledger := newMemoryLedger()

	awards, skipped, err := e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{
			{Username: "carol", HasComment: true},
			{Username: "dave", HasLike: true, HasComment: true},
			{Username: "erin", HasLike: true},
			{Username: "frank"},
		},
		nil, ledger.lookup,
	)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, awards, 4)

	// Комментарий без прочих условий — 2
	assert.Equal(t, 2, awards[0].Matsuni)
	// Лайк + комментарий — не сумма, а комментарий: 2
	assert.Equal(t, 2, awards[1].Matsuni)
	// Только лайк — 1
	assert.Equal(t, 1, awards[2].Matsuni)
	// Ничего — 0, но строка присутствует
	assert.Equal(t, 0, awards[3].Matsuni)
}

func TestScoreDailyCapClampsToZero(t *testing.T) {
	e := NewEngine(DefaultRules())
	ledger := newMemoryLedger()
	// dan уже получил 2 за сегодня по другому посту
	ledger.totals["dan|2024-01-01"] = 2

	awards, _, err := e.ScorePost(context.Background(),
		testPost("art_day", "2024-01-01"),
		[]Activity{{Username: "dan", HasLike: true}},
		nil, ledger.lookup,
	)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	// Подрезано до нуля, но запись осталась
	assert.Equal(t, 0, awards[0].Matsuni)
	assert.True(t, awards[0].HasLike)
}

func TestScoreDailyCapPartialClamp(t *testing.T) {
	e := NewEngine(DefaultRules())
	ledger := newMemoryLedger()
	ledger.totals["gala|2024-01-01"] = 1

	awards, _, err := e.ScorePost(context.Background(),
		testPost("photo", "2024-01-01"),
		[]Activity{{Username: "gala", HasComment: true}},
		nil, ledger.lookup,
	)
	require.NoError(t, err)
	// Сырых 2, остаток дня 1 → начислен 1
	assert.Equal(t, 1, awards[0].Matsuni)
}

func TestScoreCapNeverExceededAcrossPosts(t *testing.T) {
	// Свойство: сумма за (username, date) не превышает потолок
	// при любом порядке обработки постов одной даты.
	e := NewEngine(DefaultRules())

	orders := [][]string{
		{"post_a", "post_b", "post_c"},
		{"post_c", "post_a", "post_b"},
		{"post_b", "post_c", "post_a"},
	}
	for _, order := range orders {
		ledger := newMemoryLedger()
		for _, name := range order {
			awards, _, err := e.ScorePost(context.Background(),
				testPost(name, "2024-03-10"),
				[]Activity{{Username: "alice", HasComment: true}},
				nil, ledger.lookup,
			)
			require.NoError(t, err)
			ledger.commit("2024-03-10", awards)
		}
		assert.LessOrEqual(t, ledger.totals["alice|2024-03-10"], 2, "порядок %v", order)
	}
}

func TestScoreExcludedMemberAbsent(t *testing.T) {
	e := NewEngine(DefaultRules())
	ledger := newMemoryLedger()
	excluded := map[string]struct{}{"bob": {}}

	awards, skipped, err := e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{
			{Username: "alice", HasLike: true},
			{Username: "bob", HasComment: true},
		},
		excluded, ledger.lookup,
	)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	// bob исключён: его нет вовсе, даже с нулём
	require.Len(t, awards, 1)
	assert.Equal(t, "alice", awards[0].Username)
}

func TestScoreExclusionCaseInsensitive(t *testing.T) {
	e := NewEngine(DefaultRules())
	ledger := newMemoryLedger()

	// В ростере участник записан как Alice, исключение набрано строчными
	awards, skipped, err := e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{{Username: "Alice", HasComment: true}},
		map[string]struct{}{"alice": {}}, ledger.lookup,
	)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Empty(t, awards)

	// И наоборот: активность строчными, исключение с заглавной
	awards, _, err = e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{{Username: "alice", HasLike: true}},
		map[string]struct{}{"Alice": {}}, ledger.lookup,
	)
	require.NoError(t, err)
	assert.Empty(t, awards)
}

func TestScoreMissingUsernameSkippedPerRecord(t *testing.T) {
	e := NewEngine(DefaultRules())
	ledger := newMemoryLedger()

	awards, skipped, err := e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{
			{Username: "alice", HasLike: true},
			{Username: "", HasComment: true}, // битая запись
			{Username: "bob", HasLike: true},
		},
		nil, ledger.lookup,
	)
	require.NoError(t, err)
	// Частичный результат: две нормальные записи плюс одна отбраковка
	assert.Len(t, awards, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, 1, skipped[0].Index)
	assert.ErrorIs(t, skipped[0].Reason, common.ErrActivityNoUsername)
}

func TestScoreLookupErrorIsFatal(t *testing.T) {
	e := NewEngine(DefaultRules())
	boom := errors.New("база недоступна")
	lookup := func(context.Context, string, string) (int, error) { return 0, boom }

	_, _, err := e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{{Username: "alice", HasLike: true}},
		nil, lookup,
	)
	assert.ErrorIs(t, err, boom)
}

func TestScoreCustomRules(t *testing.T) {
	e := NewEngine(Rules{MaxPerDay: 10, LikeOnly: 3, Comment: 5})
	ledger := newMemoryLedger()

	awards, _, err := e.ScorePost(context.Background(),
		testPost("vibro", "2024-01-01"),
		[]Activity{
			{Username: "alice", HasLike: true},
			{Username: "bob", HasComment: true},
		},
		nil, ledger.lookup,
	)
	require.NoError(t, err)
	assert.Equal(t, 3, awards[0].Matsuni)
	assert.Equal(t, 5, awards[1].Matsuni)
}
