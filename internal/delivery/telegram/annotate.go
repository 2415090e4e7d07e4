package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"chart-annotator/internal/dto"
	"chart-annotator/pkg/common"
	"chart-annotator/pkg/logger"
	"chart-annotator/pkg/utils"

	"gopkg.in/telebot.v3"
)

const (
	StateIdle = iota
	StateWaitingAnnotateSymbol
)

func (t *TelegramBotHandler) userState(userID int64) int {
	if state, ok := t.inmemoryCache.Get(fmt.Sprintf(common.KEY_USER_STATE, userID)); ok {
		if s, ok := state.(int); ok {
			return s
		}
	}
	return StateIdle
}

func (t *TelegramBotHandler) resetUserState(userID int64) {
	t.inmemoryCache.Delete(fmt.Sprintf(common.KEY_USER_STATE, userID))
}

func (t *TelegramBotHandler) handleStartAnnotate(ctx context.Context, c telebot.Context) error {
	symbol := strings.TrimSpace(c.Message().Payload)
	if symbol != "" {
		return t.annotateAndReply(ctx, c, symbol)
	}

	t.inmemoryCache.Set(fmt.Sprintf(common.KEY_USER_STATE, c.Sender().ID), StateWaitingAnnotateSymbol, t.cfg.Cache.TelegramStateDuration)
	return c.Send("Send me the symbol you want annotated, including the exchange (e.g. BINANCE:BTCUSDT, NASDAQ:TSLA).")
}

func (t *TelegramBotHandler) annotateAndReply(ctx context.Context, c telebot.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return c.Send("That doesn't look like a symbol. Try /annotate again.")
	}

	msg, err := t.telegram.Send(ctx, c, fmt.Sprintf("Analyzing *%s*, hold on…", symbol), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to send loading message", logger.ErrorField(err))
	}

	utils.GoSafe(func() {
		newCtx, cancel := context.WithTimeout(t.ctx, t.cfg.Telegram.TimeoutDuration)
		defer cancel()

		result, aErr := t.service.AnnotateService.AnnotateSymbol(newCtx, symbol, "1d", dto.ThemeDark)
		if aErr != nil {
			t.log.ErrorContext(newCtx, "Failed to annotate symbol",
				logger.StringField("symbol", symbol),
				logger.ErrorField(aErr),
			)
			if _, sErr := t.telegram.Send(newCtx, c, fmt.Sprintf("❌ Could not render annotations for %s.", symbol)); sErr != nil {
				t.log.ErrorContext(newCtx, "Failed to send error message", logger.ErrorField(sErr))
			}
			return
		}

		if msg != nil {
			if dErr := t.telegram.Delete(newCtx, c, msg); dErr != nil {
				t.log.WarnContext(newCtx, "Failed to delete loading message", logger.ErrorField(dErr))
			}
		}

		photo := &telebot.Photo{
			File:    telebot.FromReader(bytes.NewReader(result.Image)),
			Caption: fmt.Sprintf("%s — %s", symbol, result.Plan.Story),
		}
		if _, sErr := t.telegram.Send(newCtx, c, photo); sErr != nil {
			t.log.ErrorContext(newCtx, "Failed to send annotated chart", logger.ErrorField(sErr))
		}
	})

	return nil
}
