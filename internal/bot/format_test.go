package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/features/report"
)

func TestSplitMessageShort(t *testing.T) {
	parts := splitMessage("привет", maxMessageLen)
	assert.Equal(t, []string{"привет"}, parts)
}

func TestSplitMessageByLines(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("я", 50))
	}
	text := strings.Join(lines, "\n")

	parts := splitMessage(text, 4000)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 4000)
		assert.NotEmpty(t, p)
	}
	// Склейка частей восстанавливает исходный текст
	assert.Equal(t, text, strings.Join(parts, "\n"))
}

func TestSplitMessageLongLine(t *testing.T) {
	text := strings.Repeat("a", 9000)
	parts := splitMessage(text, 4000)
	require.Len(t, parts, 3)
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestSplitMessageKeepsRunesWhole(t *testing.T) {
	// Отчёты русскоязычные: кириллица занимает 2 байта,
	// и жёсткий разрез не должен попадать внутрь символа
	text := strings.Repeat("ж", 4001)
	parts := splitMessage(text, 4000)
	require.Greater(t, len(parts), 1)
	for i, p := range parts {
		assert.True(t, utf8.ValidString(p), "часть %d разрезана посреди символа", i)
		assert.LessOrEqual(t, len(p), 4000)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestBuildActivitiesUnion(t *testing.T) {
	activities := buildActivities([]string{"alice", "bob"}, []string{"bob", "carol"})
	require.Len(t, activities, 3)

	byUser := make(map[string][2]bool)
	for _, a := range activities {
		byUser[a.Username] = [2]bool{a.HasLike, a.HasComment}
	}
	assert.Equal(t, [2]bool{true, false}, byUser["alice"])
	assert.Equal(t, [2]bool{true, true}, byUser["bob"])
	assert.Equal(t, [2]bool{false, true}, byUser["carol"])
}

func TestFormatReportMentionsEveryMember(t *testing.T) {
	entries := []report.Entry{
		{Username: "alice", Matsuni: 2, Date: "2024-01-01"},
		{Username: "bob", Matsuni: 1, Date: "2024-01-02"},
	}
	rpt, err := report.Aggregate(entries, "2024-01-01", "2024-01-07")
	require.NoError(t, err)

	text := FormatReport(rpt)
	assert.Contains(t, text, "@alice")
	assert.Contains(t, text, "@bob")
	assert.Contains(t, text, "2024-01-01 - 2024-01-07")
}

func TestFormatReportEmpty(t *testing.T) {
	rpt, err := report.Aggregate(nil, "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	assert.Contains(t, FormatReport(rpt), "нет ни одного начисления")
}

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("/report 2024-01-01 2024-01-31")
	require.True(t, ok)
	assert.Equal(t, "report", cmd)
	assert.Equal(t, []string{"2024-01-01", "2024-01-31"}, args)

	cmd, _, ok = p.ParseCommand("/help@matsuni_bot")
	require.True(t, ok)
	assert.Equal(t, "help", cmd)

	_, _, ok = p.ParseCommand("просто текст")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("/")
	assert.False(t, ok)
}
