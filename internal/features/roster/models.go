// Package roster управляет ростером отслеживаемых участников.
// models.go описывает структуры для работы с таблицей members.
package roster

import "time"

// Статусы участника. Неактивный участник остаётся в БД,
// но не попадает в проверки новых постов.
const (
	StatusActive   = "активен"
	StatusInactive = "неактивен"
)

// Member — отслеживаемый участник сообщества.
// Username — это Instagram-хендл, он же уникальный ключ
// (без учёта регистра). Создаётся оператором через диалог бота.
type Member struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	JoinDate   string    `db:"join_date"` // ГГГГ-ММ-ДД
	Status     string    `db:"status"`
	TelegramID *int64    `db:"telegram_id"` // если участник известен в Telegram
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// IsActive сообщает, учитывается ли участник в новых проверках.
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}
