// Package report строит итоги за период: суммы, средние, рейтинги.
// models.go описывает структуры отчёта.
package report

// Entry — одна запись журнала начислений, попадающая в агрегацию.
type Entry struct {
	Username string
	Matsuni  int
	Date     string // ГГГГ-ММ-ДД
}

// Уровни активности участника за период.
const (
	ActivityHigh   = "высокая"
	ActivityMedium = "средняя"
	ActivityLow    = "низкая"
)

// MemberTotal — итог одного участника за период.
type MemberTotal struct {
	Username      string  `json:"username"`
	DaysActive    int     `json:"days_active"`
	TotalMatsuni  int     `json:"total_matsuni"`
	AvgMatsuni    float64 `json:"avg_matsuni"`    // округлено до 2 знаков
	Efficiency    float64 `json:"efficiency"`     // % активных дней, 1 знак
	ActivityLevel string  `json:"activity_level"` // высокая / средняя / низкая
	Rank          int     `json:"rank"`           // плотный рейтинг 1..N
}

// PeriodReport — итог за период целиком.
// Участники без единой записи в периоде в отчёт не попадают:
// отчёт отражает наблюдавшуюся активность, а не весь ростер.
type PeriodReport struct {
	Period       string        `json:"period"` // "2024-01-01 - 2024-01-31"
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	TotalDays    int           `json:"total_days"` // включая обе границы
	TotalMembers int           `json:"total_members"`
	TotalMatsuni int           `json:"total_matsuni"`
	Members      []MemberTotal `json:"results"`
}

// PeriodID — ключ периода в таблице итогов: "2024-01-01_2024-01-31".
func (r *PeriodReport) PeriodID() string {
	return r.StartDate + "_" + r.EndDate
}
