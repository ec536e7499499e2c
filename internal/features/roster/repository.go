// Package roster — repository.go отвечает за все операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matsuni.ru/matsuni-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет участника. Дубликат username (без учёта регистра) —
// ошибка common.ErrMemberExists: ростер не терпит двойников,
// иначе сопоставление перестаёт быть однозначным.
func (r *Repository) Create(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (username, join_date, status, telegram_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (LOWER(username)) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, m.Username, m.JoinDate, m.Status, m.TelegramID)
	if err != nil {
		return fmt.Errorf("ошибка создания участника: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrMemberExists
	}
	return nil
}

// GetByUsername: если не найден — common.ErrMemberNotFound.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Member, error) {
	query := `
		SELECT id, username, join_date::text, status, telegram_id, created_at, updated_at
		FROM members
		WHERE LOWER(username) = LOWER($1)
	`
	var m Member
	err := r.db.QueryRow(ctx, query, username).Scan(
		&m.ID, &m.Username, &m.JoinDate, &m.Status, &m.TelegramID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrMemberNotFound
		}
		return nil, fmt.Errorf("ошибка чтения участника (username=%s): %w", username, err)
	}
	return &m, nil
}

// List возвращает участников; activeOnly отсекает неактивных.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]*Member, error) {
	query := `
		SELECT id, username, join_date::text, status, telegram_id, created_at, updated_at
		FROM members
	`
	if activeOnly {
		query += ` WHERE status = '` + StatusActive + `'`
	}
	query += ` ORDER BY join_date, username`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(
			&m.ID, &m.Username, &m.JoinDate, &m.Status, &m.TelegramID,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ListJoinedBefore возвращает username активных участников,
// добавленных не позже указанной даты. Именно это множество
// проверяется для поста с такой датой.
func (r *Repository) ListJoinedBefore(ctx context.Context, date string) ([]string, error) {
	query := `
		SELECT username FROM members
		WHERE status = $1 AND join_date <= $2
		ORDER BY join_date, username
	`
	rows, err := r.db.Query(ctx, query, StatusActive, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников по дате: %w", err)
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

// UpdateStatus меняет статус участника.
func (r *Repository) UpdateStatus(ctx context.Context, username, status string) error {
	query := `
		UPDATE members SET status = $2, updated_at = NOW()
		WHERE LOWER(username) = LOWER($1)
	`
	tag, err := r.db.Exec(ctx, query, username, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrMemberNotFound
	}
	return nil
}
