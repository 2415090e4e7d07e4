package telegram

import (
	"context"
	"time"

	"chart-annotator/config"
	"chart-annotator/internal/service"
	"chart-annotator/pkg/cache"
	"chart-annotator/pkg/logger"
	"chart-annotator/pkg/telegram"

	"gopkg.in/telebot.v3"
)

type TelegramBotHandler struct {
	ctx           context.Context
	cfg           *config.Config
	bot           *telebot.Bot
	log           *logger.Logger
	telegram      *telegram.TelegramRateLimiter
	service       *service.Service
	inmemoryCache cache.Cache
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	telegram *telegram.TelegramRateLimiter,
	service *service.Service,
	inmemoryCache cache.Cache,
) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:           ctx,
		cfg:           cfg,
		log:           log,
		bot:           bot,
		telegram:      telegram,
		service:       service,
		inmemoryCache: inmemoryCache,
	}
}

func (t *TelegramBotHandler) Start() {
	t.log.Info("Starting Telegram bot...")
	t.RegisterHandlers()
	t.telegram.StartCleanupExpired(t.ctx)
	go t.bot.Start()
}

func (t *TelegramBotHandler) Stop() {
	t.log.Info("Stopping Telegram bot...")

	ctx, cancel := context.WithTimeout(t.ctx, 10*time.Second)
	defer cancel()

	stopDone := make(chan struct{}, 1)
	go func() {
		t.bot.Stop()
		stopDone <- struct{}{}
	}()

	select {
	case <-stopDone:
		t.log.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.log.Warn("Timeout while stopping bot, forcing shutdown")
	}

	t.telegram.StopCleanupExpired()
}

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) func(c telebot.Context) error {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(t.ctx, t.cfg.Telegram.TimeoutDuration)
		defer cancel()

		return handler(ctx, c)
	}
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/annotate", t.WithContext(t.handleStartAnnotate))
	t.bot.Handle(telebot.OnText, t.WithContext(t.handleConversation))
}

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	message := `👋 *Welcome to the Chart Annotator bot!*

Send me a symbol and I will capture its chart, run a technical analysis and send back the chart with support/resistance zones, the pivot and both trade scenarios drawn on it.

📈 /annotate - Annotate the chart of a symbol (e.g. BINANCE:BTCUSDT)
🔁 /start - Show this message again`
	return c.Send(message, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (t *TelegramBotHandler) handleConversation(ctx context.Context, c telebot.Context) error {
	if t.userState(c.Sender().ID) == StateWaitingAnnotateSymbol {
		defer t.resetUserState(c.Sender().ID)
		return t.annotateAndReply(ctx, c, c.Text())
	}
	return c.Send("I don't recognize that. Use /annotate to annotate a chart.")
}
