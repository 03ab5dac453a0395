package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/logger"
)

type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
	logger  *logger.Logger
}

func NewNotifier(cfg *config.Config, log *logger.Logger) *Notifier {
	if !cfg.Telegram.Enabled {
		return &Notifier{enabled: false, logger: log}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Error("failed to create telegram bot", "error", err)
		return &Notifier{enabled: false, logger: log}
	}

	log.Info("telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.Telegram.ChatID,
		enabled: true,
		logger:  log,
	}
}

func (n *Notifier) NotifyUpload(bucket, fileName string, rows, groups int) {
	msg := fmt.Sprintf("📥 *%s* загружен\nФайл: %s\nСтрок: %d\nГрупп: %d",
		escape(bucket), escape(fileName), rows, groups)
	n.send(msg)
}

func (n *Notifier) NotifyUploadFailed(bucket, fileName string, err error) {
	n.send(failedUploadMessage(bucket, fileName, err))
}

// failedUploadMessage escapes every dynamic part: parser errors often quote
// input containing Markdown control characters.
func failedUploadMessage(bucket, fileName string, err error) string {
	return fmt.Sprintf("⚠️ *Ошибка загрузки* %s\nФайл: %s\n%s",
		escape("["+bucket+"]"), escape(fileName), escape(err.Error()))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func (n *Notifier) NotifyStatus(message string) {
	n.send(message)
}

func (n *Notifier) Enabled() bool {
	return n.enabled
}

func (n *Notifier) send(text string) {
	if !n.enabled {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}
