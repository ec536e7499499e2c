package exclusion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет исключение. Повтор той же пары участник/пост
// обновляет причину и заново активирует снятое исключение.
func (r *Repository) Create(ctx context.Context, e *Exclusion) error {
	query := `
		INSERT INTO exclusions (username, post_name, reason, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (username, post_name)
		DO UPDATE SET reason = EXCLUDED.reason, active = TRUE
	`
	_, err := r.db.Exec(ctx, query, e.Username, e.PostName, e.Reason)
	if err != nil {
		return fmt.Errorf("ошибка создания исключения: %w", err)
	}
	return nil
}

// ListForPost возвращает username участников, исключённых
// для данного поста либо глобально. Username приводится к нижнему
// регистру: дальше он сравнивается как ключ, а не как текст оператора.
func (r *Repository) ListForPost(ctx context.Context, postName string) ([]string, error) {
	query := `
		SELECT DISTINCT LOWER(username) FROM exclusions
		WHERE active = TRUE AND (post_name = $1 OR post_name = $2)
	`
	rows, err := r.db.Query(ctx, query, postName, WildcardPost)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса исключений: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ListActive возвращает действующие исключения для показа оператору.
func (r *Repository) ListActive(ctx context.Context) ([]*Exclusion, error) {
	query := `
		SELECT id, username, post_name, reason, active, created_at
		FROM exclusions
		WHERE active = TRUE
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса исключений: %w", err)
	}
	defer rows.Close()

	var out []*Exclusion
	for rows.Next() {
		var e Exclusion
		if err := rows.Scan(&e.ID, &e.Username, &e.PostName, &e.Reason, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// Deactivate гасит исключение, не трогая историю.
func (r *Repository) Deactivate(ctx context.Context, username, postName string) error {
	query := `
		UPDATE exclusions SET active = FALSE
		WHERE LOWER(username) = LOWER($1) AND post_name = $2
	`
	if _, err := r.db.Exec(ctx, query, username, postName); err != nil {
		return fmt.Errorf("ошибка снятия исключения: %w", err)
	}
	return nil
}
