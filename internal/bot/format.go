// format.go — сборка текстов для оператора. Telegram режет сообщения
// на 4096 символах, поэтому длинные отчёты разбиваются на части.
package bot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"matsuni.ru/matsuni-bot/internal/common"
	"matsuni.ru/matsuni-bot/internal/features/exclusion"
	"matsuni.ru/matsuni-bot/internal/features/matcher"
	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/roster"
)

// с запасом до лимита Telegram в 4096
const maxMessageLen = 4000

// splitMessage режет текст на куски не длиннее limit, по возможности
// по границам строк.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		// одна строка длиннее лимита — режем жёстко,
		// но не посреди многобайтного символа
		for len(line) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, flush(&sb), line[:cut])
			line = line[cut:]
		}
		if sb.Len()+len(line)+1 > limit {
			parts = append(parts, flush(&sb))
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func flush(sb *strings.Builder) string {
	s := sb.String()
	sb.Reset()
	return s
}

// FormatReport собирает текстовый отчёт за период.
// Экспортирован: планировщик шлёт тот же текст по расписанию.
func FormatReport(rpt *report.PeriodReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Отчёт за период %s\n", rpt.Period)
	fmt.Fprintf(&sb, "Дней: %d, участников: %d, всего %d %s\n\n",
		rpt.TotalDays, rpt.TotalMembers, rpt.TotalMatsuni, common.PluralizeMatsuni(rpt.TotalMatsuni))

	if len(rpt.Members) == 0 {
		sb.WriteString("За период нет ни одного начисления")
		return sb.String()
	}

	for _, m := range rpt.Members {
		fmt.Fprintf(&sb, "%d. @%s — %d %s за %d %s (ср. %.2f, эфф. %.1f%%, %s)\n",
			m.Rank, m.Username,
			m.TotalMatsuni, common.PluralizeMatsuni(m.TotalMatsuni),
			m.DaysActive, common.PluralizeDays(m.DaysActive),
			m.AvgMatsuni, m.Efficiency, m.ActivityLevel)
	}
	return sb.String()
}

func formatRankings(rpt *report.PeriodReport) string {
	rankings := report.BuildRankings(rpt)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Рейтинги за период %s\n", rankings.Period)

	writeTop := func(title string, members []report.MemberTotal, value func(report.MemberTotal) string) {
		if len(members) == 0 {
			return
		}
		sb.WriteString("\n" + title + "\n")
		for i, m := range members {
			fmt.Fprintf(&sb, "%d. @%s — %s\n", i+1, m.Username, value(m))
		}
	}

	writeTop("По сумме матсуни:", rankings.TopTotal, func(m report.MemberTotal) string {
		return fmt.Sprintf("%d %s", m.TotalMatsuni, common.PluralizeMatsuni(m.TotalMatsuni))
	})
	writeTop("По среднему за день:", rankings.TopAvg, func(m report.MemberTotal) string {
		return fmt.Sprintf("%.2f", m.AvgMatsuni)
	})
	writeTop("По дням активности:", rankings.TopDays, func(m report.MemberTotal) string {
		return fmt.Sprintf("%d %s", m.DaysActive, common.PluralizeDays(m.DaysActive))
	})
	writeTop("Самые стабильные:", rankings.MostStable, func(m report.MemberTotal) string {
		return fmt.Sprintf("ср. %.2f", m.AvgMatsuni)
	})

	if len(rpt.Members) > 0 {
		sb.WriteString("\n🔮 Прогноз на 30 дней:\n")
		for i, m := range rpt.Members {
			if i >= 5 {
				break
			}
			p := report.PredictNextPeriod(m, rpt.TotalDays)
			fmt.Fprintf(&sb, "@%s — ~%.1f матсуни (уверенность %.0f%%)\n",
				m.Username, p.PredictedMatsuni, p.Confidence*100)
		}
	}
	return sb.String()
}

func formatMembers(members []*roster.Member) string {
	if len(members) == 0 {
		return "Ростер пуст. /add_member добавит первого участника"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 В ростере %d %s:\n\n", len(members), common.PluralizeMembers(len(members)))
	for _, m := range members {
		mark := "✅"
		if !m.IsActive() {
			mark = "💤"
		}
		fmt.Fprintf(&sb, "%s @%s — с %s (%s)\n", mark, m.Username, m.JoinDate, m.Status)
	}
	return sb.String()
}

func formatExclusions(exclusions []*exclusion.Exclusion) string {
	if len(exclusions) == 0 {
		return "Исключений нет"
	}

	var sb strings.Builder
	sb.WriteString("🚫 Исключения из подсчёта:\n\n")
	for _, e := range exclusions {
		scope := e.PostName
		if e.IsGlobal() {
			scope = "все посты"
		}
		if e.Reason != "" {
			fmt.Fprintf(&sb, "@%s — %s (%s)\n", e.Username, scope, e.Reason)
		} else {
			fmt.Fprintf(&sb, "@%s — %s\n", e.Username, scope)
		}
	}
	return sb.String()
}

// formatPreview показывает оператору результат распознавания
// и начисления до записи в журнал.
func formatPreview(pending *pendingPost, result *matcher.BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Пост «%s» от %s (%s)\n\n", pending.Post.Name, pending.Post.Date, pending.Post.Type)
	fmt.Fprintf(&sb, "Распознано: %d с лайками, %d с комментариями\n",
		len(result.Likes), len(result.Comments))

	if len(result.Errors) > 0 {
		fmt.Fprintf(&sb, "⚠️ Скриншотов с ошибками: %d\n", len(result.Errors))
	}

	sb.WriteString("\nНачисления:\n")
	total := 0
	for _, a := range pending.Awards {
		what := "лайк"
		if a.HasComment {
			what = "комментарий"
		}
		fmt.Fprintf(&sb, "@%s — %d %s (%s)\n", a.Username, a.Matsuni, common.PluralizeMatsuni(a.Matsuni), what)
		total += a.Matsuni
	}
	if len(pending.Awards) == 0 {
		sb.WriteString("никому ничего\n")
	}
	fmt.Fprintf(&sb, "\nИтого: %d %s", total, common.PluralizeMatsuni(total))

	if len(pending.Skipped) > 0 {
		fmt.Fprintf(&sb, "\nПропущено записей: %d", len(pending.Skipped))
	}

	sb.WriteString("\n\nЗаписать в журнал? (да/нет)")
	return sb.String()
}

// --- Тексты ошибок для оператора ---

func authErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrTooManyAttempts):
		return "⛔ Слишком много попыток, подождите час"
	case errors.Is(err, common.ErrWrongPassword):
		return "❌ Неверный пароль"
	default:
		return "❌ Ошибка входа, попробуйте позже"
	}
}

func memberErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrMemberExists):
		return "Такой участник уже есть в ростере"
	case errors.Is(err, common.ErrMemberNotFound):
		return "Участник не найден в ростере"
	case errors.Is(err, common.ErrInvalidUsername):
		return "Некорректный username"
	case errors.Is(err, common.ErrInvalidDate):
		return "Дата в формате ГГГГ-ММ-ДД"
	default:
		return "❌ Что-то пошло не так"
	}
}

func periodErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidDate):
		return "Даты в формате ГГГГ-ММ-ДД"
	case errors.Is(err, common.ErrInvalidPeriod):
		return "Начало периода не может быть позже конца"
	default:
		return "❌ Не удалось построить отчёт"
	}
}
