package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob_123", "user.name", "X", "a_b.c9"}
	for _, u := range valid {
		assert.NoError(t, ValidateUsername(u), u)
	}

	invalid := []string{"", "@alice", "иван", "user name", "a-b", "x!"}
	for _, u := range invalid {
		assert.ErrorIs(t, ValidateUsername(u), ErrInvalidUsername, u)
	}
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("2024-01-31"))
	assert.ErrorIs(t, ValidateDate("2024-13-01"), ErrInvalidDate)
	assert.ErrorIs(t, ValidateDate("31.01.2024"), ErrInvalidDate)
	assert.ErrorIs(t, ValidateDate(""), ErrInvalidDate)
}

func TestValidatePeriod(t *testing.T) {
	require.NoError(t, ValidatePeriod("2024-01-01", "2024-01-31"))
	// Начало == конец — допустимо (период в один день)
	require.NoError(t, ValidatePeriod("2024-01-01", "2024-01-01"))
	assert.ErrorIs(t, ValidatePeriod("2024-02-01", "2024-01-01"), ErrInvalidPeriod)
	assert.ErrorIs(t, ValidatePeriod("bad", "2024-01-01"), ErrInvalidDate)
}

func TestDaysInPeriod(t *testing.T) {
	assert.Equal(t, 1, DaysInPeriod("2024-01-01", "2024-01-01"))
	assert.Equal(t, 2, DaysInPeriod("2024-01-01", "2024-01-02"))
	assert.Equal(t, 31, DaysInPeriod("2024-01-01", "2024-01-31"))
	// Февраль високосного года
	assert.Equal(t, 29, DaysInPeriod("2024-02-01", "2024-02-29"))
	// Некорректный порядок — ноль, не паника
	assert.Equal(t, 0, DaysInPeriod("2024-01-02", "2024-01-01"))
}

func TestPluralizeDays(t *testing.T) {
	cases := map[int]string{
		1: "день", 2: "дня", 4: "дня", 5: "дней",
		11: "дней", 14: "дней", 21: "день", 22: "дня", 100: "дней",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeDays(n), "n=%d", n)
	}
}

func TestPluralizeMembers(t *testing.T) {
	assert.Equal(t, "участник", PluralizeMembers(1))
	assert.Equal(t, "участника", PluralizeMembers(3))
	assert.Equal(t, "участников", PluralizeMembers(12))
	assert.Equal(t, "участник", PluralizeMembers(21))
}
