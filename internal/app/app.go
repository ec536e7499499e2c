// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, кэш, репозитории, сервисы
// и собирает всё в объекты Bot, Scheduler и Web.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/bot"
	"matsuni.ru/matsuni-bot/internal/cache"
	"matsuni.ru/matsuni-bot/internal/config"
	"matsuni.ru/matsuni-bot/internal/db/postgres"
	"matsuni.ru/matsuni-bot/internal/export"
	"matsuni.ru/matsuni-bot/internal/features/admin"
	"matsuni.ru/matsuni-bot/internal/features/exclusion"
	"matsuni.ru/matsuni-bot/internal/features/ledger"
	"matsuni.ru/matsuni-bot/internal/features/matcher"
	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/roster"
	"matsuni.ru/matsuni-bot/internal/features/scoring"
	"matsuni.ru/matsuni-bot/internal/jobs"
	"matsuni.ru/matsuni-bot/internal/ocr"
	"matsuni.ru/matsuni-bot/internal/web"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Web       *web.Server
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Кэш ===
	var c *cache.Cache
	if cfg.CacheDir != "" {
		c, err = cache.NewWithPath(cfg.CacheTTL, cfg.CacheDir)
	} else {
		c, err = cache.New(cfg.CacheTTL)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка создания кэша: %w", err)
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 4. Репозитории ===
	rosterRepo := roster.NewRepository(pool)
	exclusionRepo := exclusion.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	totalsRepo := ledger.NewTotalsRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	rosterService := roster.NewService(rosterRepo, c)
	exclusionService := exclusion.NewService(exclusionRepo, c)
	ledgerService := ledger.NewService(ledgerRepo)
	reportService := report.NewService(ledgerService, totalsRepo)
	adminService := admin.NewService(adminRepo, cfg.AdminPasswordHash)
	exportService := export.NewService(rosterService, ledgerService, exclusionService, reportService)

	// === 6. Распознавание и начисление ===
	engine := scoring.NewEngine(scoring.Rules{
		MaxPerDay: cfg.MatsuniMaxPerDay,
		LikeOnly:  cfg.MatsuniLikeOnly,
		Comment:   cfg.MatsuniComment,
	})
	recognizer := ocr.New(cfg.OCRBinary, cfg.OCRLang)
	processor := matcher.NewProcessor(matcher.New(), recognizer, cfg.OCRWorkers, cfg.OCRTimeout, cfg.MatchMinConfidence)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		rosterService,
		exclusionService,
		ledgerService,
		reportService,
		exportService,
		adminService,
		engine,
		processor,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(reportService, adminService, cfg.AdminIDs, b.SendMessageToUser, bot.FormatReport)

	// === 9. Web API ===
	var webServer *web.Server
	if cfg.WebEnabled {
		webServer = web.NewServer(cfg.WebAddr, rosterService, reportService, totalsRepo)
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Web:       webServer,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции по порядку.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Members},
		{2, migration002Ledger},
		{3, migration003Exclusions},
		{4, migration004PeriodTotals},
		{5, migration005Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}
	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    username VARCHAR(255) NOT NULL,
    join_date DATE NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'активен',
    telegram_id BIGINT,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_members_username_lower ON members(LOWER(username));
CREATE INDEX IF NOT EXISTS idx_members_status ON members(status);
`

var migration002Ledger = `
CREATE TABLE IF NOT EXISTS posts (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    post_date DATE NOT NULL,
    post_type VARCHAR(32) NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_posts_date ON posts(post_date);

CREATE TABLE IF NOT EXISTS activities (
    id BIGSERIAL PRIMARY KEY,
    post_id BIGINT NOT NULL REFERENCES posts(id),
    username VARCHAR(255) NOT NULL,
    has_like BOOLEAN NOT NULL DEFAULT FALSE,
    has_comment BOOLEAN NOT NULL DEFAULT FALSE,
    matsuni INTEGER NOT NULL DEFAULT 0,
    entry_date DATE NOT NULL,
    checked_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_activities_entry_date ON activities(entry_date);
CREATE INDEX IF NOT EXISTS idx_activities_username_date ON activities(LOWER(username), entry_date);
`

var migration003Exclusions = `
CREATE TABLE IF NOT EXISTS exclusions (
    id BIGSERIAL PRIMARY KEY,
    username VARCHAR(255) NOT NULL,
    post_name VARCHAR(255) NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (username, post_name)
);
CREATE INDEX IF NOT EXISTS idx_exclusions_post ON exclusions(post_name);
`

var migration004PeriodTotals = `
CREATE TABLE IF NOT EXISTS period_totals (
    id BIGSERIAL PRIMARY KEY,
    period_id VARCHAR(32) NOT NULL,
    username VARCHAR(255) NOT NULL,
    days_active INTEGER NOT NULL,
    total_matsuni INTEGER NOT NULL,
    avg_matsuni DOUBLE PRECISION NOT NULL,
    efficiency DOUBLE PRECISION NOT NULL,
    activity_level VARCHAR(32) NOT NULL,
    rank INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_period_totals_period ON period_totals(period_id);
`

var migration005Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) NOT NULL,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(user_id, is_active);

CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_login_attempts_user_time ON admin_login_attempts(user_id, attempt_time);
`
