package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"matsuni.ru/matsuni-bot/internal/features/report"
)

// TotalsRepository хранит рассчитанные итоги периодов.
// Пересчёт периода перезаписывает его итоги целиком,
// поэтому повторный расчёт всегда даёт то же состояние.
type TotalsRepository struct {
	db *pgxpool.Pool
}

func NewTotalsRepository(db *pgxpool.Pool) *TotalsRepository {
	return &TotalsRepository{db: db}
}

// ReplacePeriod удаляет старые итоги периода и пишет новые одной транзакцией.
func (r *TotalsRepository) ReplacePeriod(ctx context.Context, periodID string, members []report.MemberTotal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM period_totals WHERE period_id = $1`, periodID); err != nil {
		return fmt.Errorf("ошибка удаления старых итогов: %w", err)
	}

	for _, m := range members {
		_, err := tx.Exec(ctx, `
			INSERT INTO period_totals
				(period_id, username, days_active, total_matsuni, avg_matsuni, efficiency, activity_level, rank)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, periodID, m.Username, m.DaysActive, m.TotalMatsuni, m.AvgMatsuni, m.Efficiency, m.ActivityLevel, m.Rank)
		if err != nil {
			return fmt.Errorf("ошибка записи итогов (username=%s): %w", m.Username, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// PeriodTotals читает сохранённые итоги периода.
func (r *TotalsRepository) PeriodTotals(ctx context.Context, periodID string) ([]report.MemberTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT username, days_active, total_matsuni, avg_matsuni, efficiency, activity_level, rank
		FROM period_totals
		WHERE period_id = $1
		ORDER BY rank
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса итогов: %w", err)
	}
	defer rows.Close()

	var out []report.MemberTotal
	for rows.Next() {
		var m report.MemberTotal
		if err := rows.Scan(
			&m.Username, &m.DaysActive, &m.TotalMatsuni, &m.AvgMatsuni,
			&m.Efficiency, &m.ActivityLevel, &m.Rank,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
