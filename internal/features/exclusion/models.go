// Package exclusion управляет исключениями из подсчёта.
// Исключённый участник пропускается при начислении матсуни
// для конкретного поста или для всех постов сразу.
package exclusion

import "time"

// WildcardPost — специальное имя поста, означающее «все посты».
const WildcardPost = "all"

// Exclusion — запись об исключении участника из подсчёта.
// Снятое исключение не удаляется, а гасится флагом Active:
// история исключений остаётся в таблице.
type Exclusion struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	PostName  string    `db:"post_name"` // имя поста или WildcardPost
	Reason    string    `db:"reason"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// IsGlobal сообщает, действует ли исключение на все посты.
func (e *Exclusion) IsGlobal() bool {
	return e.PostName == WildcardPost
}
