// Package scoring начисляет матсуни за активность под постом.
// models.go описывает структуры движка подсчёта.
package scoring

// Rules — правила начисления. Значения приходят из конфигурации,
// движок не знает про переменные окружения.
type Rules struct {
	// MaxPerDay — потолок матсуни на участника за календарный день
	MaxPerDay int
	// LikeOnly — начисление за лайк без комментария
	LikeOnly int
	// Comment — начисление при наличии комментария (лайк уже не важен:
	// комментарий доминирует, суммы нет)
	Comment int
}

// DefaultRules — правила из оригинального регламента сообщества.
func DefaultRules() Rules {
	return Rules{MaxPerDay: 2, LikeOnly: 1, Comment: 2}
}

// Post — проверяемый пост. ID собирается из названия, даты и времени
// проверки; после создания пост не меняется.
type Post struct {
	ID   string
	Name string
	Date string // ГГГГ-ММ-ДД
	Type string
}

// Activity — сырые флаги активности одного участника под постом.
type Activity struct {
	Username   string
	HasLike    bool
	HasComment bool
}

// Award — начисление одному участнику. Участник с нулём после
// дневного потолка остаётся в списке (в отличие от исключённого,
// которого в списке нет вовсе).
type Award struct {
	Username   string
	HasLike    bool
	HasComment bool
	Matsuni    int
}

// Skipped — отбракованная запись активности. Такие записи не роняют
// весь пост: движок возвращает их отдельным списком.
type Skipped struct {
	Index  int // позиция записи во входном списке
	Reason error
}
