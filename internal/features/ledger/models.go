// Package ledger — журнал начислений: посты и построчные записи
// активности с итоговыми матсуни. Журнал только дописывается,
// пересчёты периодов читают его целиком за диапазон дат.
package ledger

import "time"

// Типы постов.
const (
	PostTypePhoto = "фото"
	PostTypeVideo = "видео"
	PostTypeReels = "reels"
)

// PostRecord — проверенный пост.
type PostRecord struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	PostDate  string    `db:"post_date"` // ГГГГ-ММ-ДД
	PostType  string    `db:"post_type"`
	CreatedAt time.Time `db:"created_at"`
}

// ActivityRecord — начисление участнику за пост.
// EntryDate совпадает с датой поста: дневной лимит считается
// по дню публикации, а не по дню проверки.
type ActivityRecord struct {
	ID         int64     `db:"id"`
	PostID     int64     `db:"post_id"`
	Username   string    `db:"username"`
	HasLike    bool      `db:"has_like"`
	HasComment bool      `db:"has_comment"`
	Matsuni    int       `db:"matsuni"`
	EntryDate  string    `db:"entry_date"`
	CheckedAt  time.Time `db:"checked_at"`
}
