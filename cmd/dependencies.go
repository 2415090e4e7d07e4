package cmd

import (
	"context"
	"time"

	"chart-annotator/config"
	"chart-annotator/internal/renderer"
	"chart-annotator/pkg/cache"
	"chart-annotator/pkg/logger"
	"chart-annotator/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	renderer    *renderer.Renderer
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}
	log = log.WithTelegramAlert(cfg)

	rend, err := renderer.New(cfg.Annotation, log)
	if err != nil {
		log.Error("Failed to create renderer", zap.Error(err))
		return nil, err
	}

	pref := telebot.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", zap.Error(err))
		},
	}
	telegramBot, err := telebot.NewBot(pref)
	if err != nil {
		log.Error("Failed to create telegram bot", zap.Error(err))
		return nil, err
	}

	e := echo.New()
	return &AppDependency{
		cfg:         cfg,
		log:         log,
		validator:   goValidator.New(),
		echo:        e,
		cache:       cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		renderer:    rend,
		telegram:    telegram.NewTelegramRateLimiter(&cfg.Telegram, log, telegramBot),
		telegramBot: telegramBot,
	}, nil
}

// NewAppDependencyOffline builds the subset of dependencies the one-shot
// render command needs: no bot, no alert hook, no network collaborators.
func NewAppDependencyOffline(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	rend, err := renderer.New(cfg.Annotation, log)
	if err != nil {
		log.Error("Failed to create renderer", zap.Error(err))
		return nil, err
	}

	return &AppDependency{
		cfg:      cfg,
		log:      log,
		cache:    cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		renderer: rend,
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	return d.log.Sync()
}
