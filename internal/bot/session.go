// session.go — пошаговые диалоги с оператором: добавление участника,
// проверка нового поста по скриншотам, исключения, отчёты.
// Состояния живут в admin.Service и истекают через 5 минут.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/common"
	"matsuni.ru/matsuni-bot/internal/features/admin"
	"matsuni.ru/matsuni-bot/internal/features/ledger"
	"matsuni.ru/matsuni-bot/internal/features/scoring"
)

// Черновики диалогов. Лежат в Data состояния и переживают шаги диалога.
type memberDraft struct {
	Username string
}

type postDraft struct {
	Name    string
	Date    string
	Type    string
	FileIDs []string
}

type pendingPost struct {
	Post    scoring.Post
	Awards  []scoring.Award
	Skipped []scoring.Skipped
}

type exclusionDraft struct {
	Username string
	PostName string
}

type reportDraft struct {
	Start string
}

// handleDialog продолжает активный диалог по текстовому сообщению.
func (b *Bot) handleDialog(ctx context.Context, chatID, userID int64, state *admin.DialogState, text string) {
	switch state.State {
	case admin.StateAddMemberUsername:
		if err := common.ValidateUsername(text); err != nil {
			b.sendMessage(chatID, "Некорректный username (латиница, цифры, _ и точка). Попробуйте ещё раз или /cancel")
			return
		}
		b.adminService.SetState(userID, admin.StateAddMemberDate, &memberDraft{Username: text})
		b.sendMessage(chatID, "Дата добавления (ГГГГ-ММ-ДД) или /skip — сегодня:")

	case admin.StateAddMemberDate:
		draft := state.Data.(*memberDraft)
		date := text
		if isSkip(text) {
			date = common.GetMoscowDate()
		}
		b.adminService.ClearState(userID)

		m, err := b.rosterService.AddMember(ctx, draft.Username, date, nil)
		if err != nil {
			b.sendMessage(chatID, memberErrorText(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ @%s добавлен в ростер с %s", m.Username, m.JoinDate))

	case admin.StateNewPostName:
		if text == "" {
			b.sendMessage(chatID, "Имя поста не может быть пустым")
			return
		}
		b.adminService.SetState(userID, admin.StateNewPostDate, &postDraft{Name: text})
		b.sendMessage(chatID, "Дата поста (ГГГГ-ММ-ДД) или /skip — сегодня:")

	case admin.StateNewPostDate:
		draft := state.Data.(*postDraft)
		if isSkip(text) {
			draft.Date = common.GetMoscowDate()
		} else {
			if err := common.ValidateDate(text); err != nil {
				b.sendMessage(chatID, "Дата в формате ГГГГ-ММ-ДД. Попробуйте ещё раз или /cancel")
				return
			}
			draft.Date = text
		}
		b.adminService.SetState(userID, admin.StateNewPostType, draft)
		b.sendMessage(chatID, "Тип поста: фото / видео / reels (или /skip — фото):")

	case admin.StateNewPostType:
		draft := state.Data.(*postDraft)
		switch {
		case isSkip(text):
			draft.Type = ledger.PostTypePhoto
		case strings.EqualFold(text, ledger.PostTypePhoto):
			draft.Type = ledger.PostTypePhoto
		case strings.EqualFold(text, ledger.PostTypeVideo):
			draft.Type = ledger.PostTypeVideo
		case strings.EqualFold(text, ledger.PostTypeReels):
			draft.Type = ledger.PostTypeReels
		default:
			b.sendMessage(chatID, "Не понял тип. Варианты: фото, видео, reels")
			return
		}
		b.adminService.SetState(userID, admin.StateNewPostImages, draft)
		b.sendMessage(chatID, "Отправьте скриншоты лайков и комментариев, затем /done")

	case admin.StateNewPostImages:
		draft := state.Data.(*postDraft)
		if !isDone(text) {
			b.sendMessage(chatID, "Жду скриншоты. /done — закончить, /cancel — отмена")
			return
		}
		if len(draft.FileIDs) == 0 {
			b.sendMessage(chatID, "Ни одного скриншота не получено. Отправьте хотя бы один или /cancel")
			return
		}
		b.processNewPost(ctx, chatID, userID, draft)

	case admin.StateNewPostConfirm:
		pending := state.Data.(*pendingPost)
		b.adminService.ClearState(userID)

		if !isYes(text) {
			b.sendMessage(chatID, "Начисление отменено, в журнал ничего не записано")
			return
		}
		rec, err := b.ledgerService.SavePost(ctx, pending.Post, pending.Awards)
		if err != nil {
			log.WithError(err).Error("Ошибка записи поста в журнал")
			b.sendMessage(chatID, "❌ Не удалось записать пост в журнал")
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ Пост «%s» записан (id %d)", rec.Name, rec.ID))

	case admin.StateExclusionUsername:
		if err := common.ValidateUsername(text); err != nil {
			b.sendMessage(chatID, "Некорректный username. Попробуйте ещё раз или /cancel")
			return
		}
		// Исключать можно только тех, кто есть в ростере
		if _, err := b.rosterService.GetMember(ctx, text); err != nil {
			b.sendMessage(chatID, memberErrorText(err))
			return
		}
		b.adminService.SetState(userID, admin.StateExclusionPost, &exclusionDraft{Username: text})
		b.sendMessage(chatID, "Имя поста или /skip — исключить из всех постов:")

	case admin.StateExclusionPost:
		draft := state.Data.(*exclusionDraft)
		if !isSkip(text) {
			draft.PostName = text
		}
		b.adminService.SetState(userID, admin.StateExclusionReason, draft)
		b.sendMessage(chatID, "Причина (или /skip):")

	case admin.StateExclusionReason:
		draft := state.Data.(*exclusionDraft)
		reason := text
		if isSkip(text) {
			reason = ""
		}
		b.adminService.ClearState(userID)

		if err := b.exclusionService.AddExclusion(ctx, draft.Username, draft.PostName, reason); err != nil {
			log.WithError(err).Error("Ошибка добавления исключения")
			b.sendMessage(chatID, "❌ Не удалось добавить исключение")
			return
		}
		scope := draft.PostName
		if scope == "" {
			scope = "всех постов"
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ @%s исключён из подсчёта для %s", draft.Username, scope))

	case admin.StateReportStart:
		if err := common.ValidateDate(text); err != nil {
			b.sendMessage(chatID, "Дата начала в формате ГГГГ-ММ-ДД:")
			return
		}
		b.adminService.SetState(userID, admin.StateReportEnd, &reportDraft{Start: text})
		b.sendMessage(chatID, "Дата конца периода (ГГГГ-ММ-ДД):")

	case admin.StateReportEnd:
		draft := state.Data.(*reportDraft)
		b.adminService.ClearState(userID)
		b.sendReport(ctx, chatID, draft.Start, text)

	default:
		b.adminService.ClearState(userID)
		b.sendMessage(chatID, "Диалог устарел, начните заново")
	}
}

// --- Запуск диалогов ---

func (b *Bot) startAddMember(ctx context.Context, chatID, userID int64, args []string) {
	// Короткий путь: /add_member username [дата]
	if len(args) >= 1 {
		b.adminService.SetState(userID, admin.StateAddMemberUsername, nil)
		state := b.adminService.GetState(userID)
		b.handleDialog(ctx, chatID, userID, state, args[0])
		if len(args) >= 2 {
			if state := b.adminService.GetState(userID); state != nil {
				b.handleDialog(ctx, chatID, userID, state, args[1])
			}
		}
		return
	}
	b.adminService.SetState(userID, admin.StateAddMemberUsername, nil)
	b.sendMessage(chatID, "Username нового участника:")
}

func (b *Bot) startNewPost(chatID, userID int64) {
	b.adminService.SetState(userID, admin.StateNewPostName, nil)
	b.sendMessage(chatID, "Имя поста:")
}

func (b *Bot) startExclusion(chatID, userID int64) {
	b.adminService.SetState(userID, admin.StateExclusionUsername, nil)
	b.sendMessage(chatID, "Username участника для исключения:")
}

// --- Скриншоты ---

// handlePostImage принимает фото в диалоге нового поста.
// Telegram присылает несколько размеров, берём самый крупный.
func (b *Bot) handlePostImage(chatID, userID int64, state *admin.DialogState, photos []tgbotapi.PhotoSize) {
	largest := photos[len(photos)-1]
	count := b.appendScreenshot(userID, state, largest.FileID)
	b.sendMessage(chatID, fmt.Sprintf("Скриншот %d принят. Ещё или /done", count))
}

// appendScreenshot дописывает file_id в черновик поста и возвращает
// число собранных скриншотов. Вызывается под мьютексом оператора:
// фотоальбом приходит отдельными сообщениями, и без сериализации
// часть скриншотов терялась бы.
func (b *Bot) appendScreenshot(userID int64, state *admin.DialogState, fileID string) int {
	draft := state.Data.(*postDraft)
	draft.FileIDs = append(draft.FileIDs, fileID)
	b.adminService.SetState(userID, admin.StateNewPostImages, draft)
	return len(draft.FileIDs)
}

// processNewPost скачивает скриншоты, распознаёт активность
// и показывает оператору превью начислений перед записью.
func (b *Bot) processNewPost(ctx context.Context, chatID, userID int64, draft *postDraft) {
	b.sendMessage(chatID, fmt.Sprintf("Обрабатываю %d скриншотов...", len(draft.FileIDs)))

	images, err := b.downloadImages(draft.FileIDs)
	if err != nil {
		log.WithError(err).Error("Ошибка скачивания скриншотов")
		b.adminService.ClearState(userID)
		b.sendMessage(chatID, "❌ Не удалось скачать скриншоты из Telegram")
		return
	}

	rosterUsernames, err := b.rosterService.Roster(ctx, draft.Date)
	if err != nil {
		b.adminService.ClearState(userID)
		if errors.Is(err, common.ErrEmptyRoster) {
			b.sendMessage(chatID, "Ростер пуст на эту дату: сначала /add_member")
			return
		}
		log.WithError(err).Error("Ошибка чтения ростера")
		b.sendMessage(chatID, "❌ Ошибка чтения ростера")
		return
	}

	result := b.processor.ProcessImages(ctx, images, rosterUsernames)

	excluded, err := b.exclusionService.ExcludedSet(ctx, draft.Name)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения исключений")
		b.adminService.ClearState(userID)
		b.sendMessage(chatID, "❌ Ошибка чтения исключений")
		return
	}

	post := scoring.Post{Name: draft.Name, Date: draft.Date, Type: draft.Type}
	awards, skipped, err := b.engine.ScorePost(ctx, post, buildActivities(result.Likes, result.Comments), excluded, b.ledgerService.DailyLookup())
	if err != nil {
		log.WithError(err).Error("Ошибка начисления")
		b.adminService.ClearState(userID)
		b.sendMessage(chatID, "❌ Ошибка начисления матсуни")
		return
	}

	pending := &pendingPost{Post: post, Awards: awards, Skipped: skipped}
	b.adminService.SetState(userID, admin.StateNewPostConfirm, pending)
	b.sendLong(chatID, formatPreview(pending, result))
}

// buildActivities сводит списки лайков и комментариев в записи активности.
func buildActivities(likes, comments []string) []scoring.Activity {
	byUser := make(map[string]*scoring.Activity)
	var order []string
	for _, u := range likes {
		byUser[u] = &scoring.Activity{Username: u, HasLike: true}
		order = append(order, u)
	}
	for _, u := range comments {
		if a, ok := byUser[u]; ok {
			a.HasComment = true
			continue
		}
		byUser[u] = &scoring.Activity{Username: u, HasComment: true}
		order = append(order, u)
	}

	out := make([]scoring.Activity, 0, len(order))
	for _, u := range order {
		out = append(out, *byUser[u])
	}
	return out
}

// downloadImages скачивает файлы скриншотов из Telegram.
func (b *Bot) downloadImages(fileIDs []string) ([][]byte, error) {
	images := make([][]byte, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		url, err := b.api.GetFileDirectURL(fileID)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения ссылки на файл: %w", err)
		}
		resp, err := b.httpClient.Get(url)
		if err != nil {
			return nil, fmt.Errorf("ошибка скачивания файла: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла: %w", err)
		}
		images = append(images, data)
	}
	return images, nil
}

// --- Простые обработчики команд ---

func (b *Bot) handleMembers(ctx context.Context, chatID int64) {
	members, err := b.rosterService.ListMembers(ctx, false)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения ростера")
		b.sendMessage(chatID, "❌ Ошибка чтения ростера")
		return
	}
	b.sendLong(chatID, formatMembers(members))
}

func (b *Bot) handleSetStatus(ctx context.Context, chatID int64, args []string, status string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Укажите username: /activate alice")
		return
	}
	if err := b.rosterService.SetStatus(ctx, args[0], status); err != nil {
		b.sendMessage(chatID, memberErrorText(err))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ @%s теперь «%s»", args[0], status))
}

func (b *Bot) handleExclusions(ctx context.Context, chatID int64) {
	exclusions, err := b.exclusionService.ListExclusions(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения исключений")
		b.sendMessage(chatID, "❌ Ошибка чтения исключений")
		return
	}
	b.sendLong(chatID, formatExclusions(exclusions))
}

func (b *Bot) handleReport(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) >= 2 {
		b.sendReport(ctx, chatID, args[0], args[1])
		return
	}
	b.adminService.SetState(userID, admin.StateReportStart, nil)
	b.sendMessage(chatID, "Дата начала периода (ГГГГ-ММ-ДД):")
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, start, end string) {
	rpt, err := b.reportService.BuildPeriodReport(ctx, start, end)
	if err != nil {
		b.sendMessage(chatID, periodErrorText(err))
		return
	}
	b.sendLong(chatID, FormatReport(rpt))
}

func (b *Bot) handleRankings(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.sendMessage(chatID, "Укажите период: /rankings 2024-01-01 2024-01-31")
		return
	}
	rpt, err := b.reportService.BuildPeriodReport(ctx, args[0], args[1])
	if err != nil {
		b.sendMessage(chatID, periodErrorText(err))
		return
	}
	b.sendLong(chatID, formatRankings(rpt))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.sendMessage(chatID, "Укажите период: /export 2024-01-01 2024-01-31")
		return
	}
	data, err := b.exportService.BuildWorkbook(ctx, args[0], args[1])
	if err != nil {
		b.sendMessage(chatID, periodErrorText(err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("matsuni_%s_%s.xlsx", args[0], args[1]),
		Bytes: data,
	})
	if _, err := b.api.Send(doc); err != nil {
		log.WithError(err).Error("Ошибка отправки выгрузки")
		b.sendMessage(chatID, "❌ Не удалось отправить файл")
	}
}

// --- Разбор коротких ответов ---

func isSkip(text string) bool {
	return strings.EqualFold(text, "/skip") || strings.EqualFold(text, "skip")
}

func isDone(text string) bool {
	return strings.EqualFold(text, "/done") || strings.EqualFold(text, "done") || strings.EqualFold(text, "готово")
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "да", "yes", "y", "+", "ок", "ok":
		return true
	}
	return false
}
