// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// Бот работает только в личных сообщениях с операторами из ADMIN_IDS.
package bot

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/bot/middleware"
	"matsuni.ru/matsuni-bot/internal/config"
	"matsuni.ru/matsuni-bot/internal/export"
	"matsuni.ru/matsuni-bot/internal/features/admin"
	"matsuni.ru/matsuni-bot/internal/features/exclusion"
	"matsuni.ru/matsuni-bot/internal/features/ledger"
	"matsuni.ru/matsuni-bot/internal/features/matcher"
	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/roster"
	"matsuni.ru/matsuni-bot/internal/features/scoring"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter

	rosterService    *roster.Service
	exclusionService *exclusion.Service
	ledgerService    *ledger.Service
	reportService    *report.Service
	exportService    *export.Service
	adminService     *admin.Service

	engine    *scoring.Engine
	processor *matcher.Processor

	parser *CommandParser

	// для скачивания скриншотов из Telegram
	httpClient *http.Client

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}

	// апдейты одного оператора обрабатываются последовательно:
	// диалоговое состояние и черновики не рассчитаны на гонку
	userMu    sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	rosterService *roster.Service,
	exclusionService *exclusion.Service,
	ledgerService *ledger.Service,
	reportService *report.Service,
	exportService *export.Service,
	adminService *admin.Service,
	engine *scoring.Engine,
	processor *matcher.Processor,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:              api,
		cfg:              cfg,
		rateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		rosterService:    rosterService,
		exclusionService: exclusionService,
		ledgerService:    ledgerService,
		reportService:    reportService,
		exportService:    exportService,
		adminService:     adminService,
		engine:           engine,
		processor:        processor,
		parser:           NewCommandParser(),
		httpClient:       &http.Client{Timeout: 30 * time.Second},
		inflight:         make(chan struct{}, maxInFlight),
		userLocks:        make(map[int64]*sync.Mutex),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
		"admins":       len(b.cfg.AdminIDs),
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.rateLimiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	middleware.LogMessage(message)

	// Бот работает только в личке и только с операторами
	if !message.Chat.IsPrivate() {
		return
	}
	userID := message.From.ID
	if !b.cfg.IsAdmin(userID) {
		log.WithField("user_id", userID).Debug("Сообщение не от оператора, игнорируем")
		return
	}

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	// Telegram может прислать несколько апдейтов одного оператора
	// почти одновременно (альбом фотографий приходит отдельными
	// сообщениями) — сериализуем их.
	mu := b.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	// Парольная аутентификация поверх списка ADMIN_IDS
	state := b.adminService.GetState(userID)
	if state != nil && state.State == admin.StateAwaitingPassword {
		b.handlePasswordInput(ctx, chatID, userID, text)
		return
	}
	if !b.adminService.HasActiveSession(ctx, userID) {
		b.sendMessage(chatID, "🔐 Введите пароль оператора:")
		b.adminService.SetState(userID, admin.StateAwaitingPassword, nil)
		return
	}
	b.adminService.TouchSession(ctx, userID)

	// Скриншоты в диалоге нового поста
	if len(message.Photo) > 0 {
		if state != nil && state.State == admin.StateNewPostImages {
			b.handlePostImage(chatID, userID, state, message.Photo)
		} else {
			b.sendMessage(chatID, "Скриншоты принимаются только в диалоге /new_post")
		}
		return
	}

	if text == "" {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(text)

	// /cancel прерывает любой диалог
	if isCommand && cmd == "cancel" {
		b.adminService.ClearState(userID)
		b.sendMessage(chatID, "Диалог сброшен")
		return
	}

	// Активный диалог имеет приоритет над командами (кроме /cancel)
	if state != nil && state.State != admin.StateNone {
		b.handleDialog(ctx, chatID, userID, state, text)
		return
	}

	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
		return
	}

	b.sendMessage(chatID, "Не понимаю. /help покажет список команд")
}

// userLock возвращает мьютекс оператора, создавая его при первом обращении.
func (b *Bot) userLock(userID int64) *sync.Mutex {
	b.userMu.Lock()
	defer b.userMu.Unlock()
	mu, ok := b.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		b.userLocks[userID] = mu
	}
	return mu
}

// handlePasswordInput проверяет введённый пароль.
func (b *Bot) handlePasswordInput(ctx context.Context, chatID, userID int64, password string) {
	b.adminService.ClearState(userID)

	if err := b.adminService.VerifyPassword(ctx, userID, password); err != nil {
		b.sendMessage(chatID, authErrorText(err))
		return
	}
	b.sendMessage(chatID, "✅ Доступ открыт. /help — список команд")
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start", "help":
		b.sendMessage(chatID, helpText)

	case "logout":
		if err := b.adminService.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода")
		}
		b.sendMessage(chatID, "Сессия закрыта")

	case "add_member":
		b.startAddMember(ctx, chatID, userID, args)

	case "members":
		b.handleMembers(ctx, chatID)

	case "deactivate":
		b.handleSetStatus(ctx, chatID, args, roster.StatusInactive)

	case "activate":
		b.handleSetStatus(ctx, chatID, args, roster.StatusActive)

	case "new_post":
		b.startNewPost(chatID, userID)

	case "exclude":
		b.startExclusion(chatID, userID)

	case "exclusions":
		b.handleExclusions(ctx, chatID)

	case "report":
		b.handleReport(ctx, chatID, userID, args)

	case "rankings":
		b.handleRankings(ctx, chatID, args)

	case "export":
		b.handleExport(ctx, chatID, args)

	default:
		b.sendMessage(chatID, "Неизвестная команда. /help покажет список")
	}
}

const helpText = `Команды бота:
/add_member — добавить участника в ростер
/members — список участников
/activate <username> — вернуть участника в подсчёт
/deactivate <username> — убрать участника из подсчёта
/new_post — проверить новый пост по скриншотам
/exclude — исключить участника из подсчёта
/exclusions — список исключений
/report [начало конец] — отчёт за период
/rankings <начало> <конец> — рейтинги за период
/export <начало> <конец> — выгрузка в Excel
/cancel — сбросить текущий диалог
/logout — закрыть сессию

Даты в формате ГГГГ-ММ-ДД.`

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// sendLong отправляет длинный текст, разбивая его на части.
func (b *Bot) sendLong(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		b.sendMessage(chatID, chunk)
	}
}

// SendMessageToUser отправляет сообщение пользователю (для планировщика).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	b.sendLong(userID, text)
}

// CommandParser парсит команды с префиксами /, ! и .
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!", "."},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	// "/команда@имябота" в личке тоже встречается
	cmd := strings.ToLower(strings.SplitN(parts[0], "@", 2)[0])
	return cmd, parts[1:], true
}
