// Package admin отвечает за доступ операторов: парольная аутентификация
// с Argon2id, сессии в БД и состояния пошаговых диалогов.
package admin

import "time"

// Session — активная сессия оператора.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — попытка входа (для защиты от перебора).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// DialogState — состояние пошагового диалога с оператором.
// Диалоги идут по шагам: новый пост — имя → дата → скриншоты → подтверждение.
type DialogState struct {
	State     string      // Текущее состояние
	Data      interface{} // Накопленные данные диалога
	ExpiresAt time.Time   // Когда состояние истекает (5 минут)
}

// Состояния диалогов.
const (
	StateNone             = ""
	StateAwaitingPassword = "awaiting_password"

	StateAddMemberUsername = "add_member_username"
	StateAddMemberDate     = "add_member_date"

	StateNewPostName     = "new_post_name"
	StateNewPostDate     = "new_post_date"
	StateNewPostType     = "new_post_type"
	StateNewPostImages   = "new_post_images"
	StateNewPostConfirm  = "new_post_confirm"

	StateExclusionUsername = "exclusion_username"
	StateExclusionPost     = "exclusion_post"
	StateExclusionReason   = "exclusion_reason"

	StateReportStart = "report_start"
	StateReportEnd   = "report_end"
)
