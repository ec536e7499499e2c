package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"matsuni.ru/matsuni-bot/internal/features/report"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AppendPost атомарно пишет пост и все начисления по нему.
// Либо в журнале появляется всё, либо ничего.
func (r *Repository) AppendPost(ctx context.Context, post *PostRecord, activities []*ActivityRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO posts (name, post_date, post_type)
		VALUES ($1, $2, $3)
		RETURNING id
	`, post.Name, post.PostDate, post.PostType).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи поста: %w", err)
	}

	for _, a := range activities {
		a.PostID = post.ID
		a.EntryDate = post.PostDate
		_, err = tx.Exec(ctx, `
			INSERT INTO activities (post_id, username, has_like, has_comment, matsuni, entry_date)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.PostID, a.Username, a.HasLike, a.HasComment, a.Matsuni, a.EntryDate)
		if err != nil {
			return fmt.Errorf("ошибка записи активности (username=%s): %w", a.Username, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// TotalForDay возвращает сумму матсуни участника за день.
// Это значение и есть «уже начислено сегодня» для дневного лимита.
func (r *Repository) TotalForDay(ctx context.Context, username, date string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(matsuni), 0) FROM activities
		WHERE LOWER(username) = LOWER($1) AND entry_date = $2
	`, username, date).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта матсуни за день: %w", err)
	}
	return total, nil
}

// EntriesInRange возвращает все начисления периода (границы включительно).
func (r *Repository) EntriesInRange(ctx context.Context, startDate, endDate string) ([]report.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT username, matsuni, entry_date::text FROM activities
		WHERE entry_date BETWEEN $1 AND $2
		ORDER BY entry_date, id
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса журнала: %w", err)
	}
	defer rows.Close()

	var out []report.Entry
	for rows.Next() {
		var e report.Entry
		if err := rows.Scan(&e.Username, &e.Matsuni, &e.Date); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ListPosts возвращает посты за период для экспорта и отчётов.
func (r *Repository) ListPosts(ctx context.Context, startDate, endDate string) ([]*PostRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, post_date::text, post_type, created_at FROM posts
		WHERE post_date BETWEEN $1 AND $2
		ORDER BY post_date, id
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса постов: %w", err)
	}
	defer rows.Close()

	var out []*PostRecord
	for rows.Next() {
		var p PostRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.PostDate, &p.PostType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ListActivities возвращает начисления за период для экспорта.
func (r *Repository) ListActivities(ctx context.Context, startDate, endDate string) ([]*ActivityRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, post_id, username, has_like, has_comment, matsuni, entry_date::text, checked_at
		FROM activities
		WHERE entry_date BETWEEN $1 AND $2
		ORDER BY entry_date, id
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса активности: %w", err)
	}
	defer rows.Close()

	var out []*ActivityRecord
	for rows.Next() {
		var a ActivityRecord
		if err := rows.Scan(
			&a.ID, &a.PostID, &a.Username, &a.HasLike, &a.HasComment,
			&a.Matsuni, &a.EntryDate, &a.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
