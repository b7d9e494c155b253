package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/camuig/trader-console/internal/config"
	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/logger"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	bot     sender
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

// Observe forwards the actions an operator should hear about.
func (n *Notifier) Observe(a console.Action) {
	if msg, ok := formatAction(a); ok {
		n.send(msg)
	}
}

func (n *Notifier) NotifyKillSwitch(on bool) {
	if on {
		n.send("🛑 *Kill switch ON*\nNew orders are blocked.")
		return
	}
	n.send("✅ *Kill switch OFF*\nOrder placement resumed.")
}

func (n *Notifier) NotifyModeChange(from, to string) {
	n.send(fmt.Sprintf("🔁 *Execution mode* %s → %s", from, to))
}

func (n *Notifier) NotifyError(context string, err error) {
	msg := fmt.Sprintf("⚠️ *Error* [%s]\n%v", context, err)
	n.send(msg)
}

func (n *Notifier) NotifyStatus(message string) {
	n.send(message)
}

func formatAction(a console.Action) (string, bool) {
	if a.Failed() {
		return fmt.Sprintf("⚠️ *Failed* %s %s\n%v", a.Kind, a.Target, a.Err), true
	}

	switch a.Kind {
	case console.ActionKillSwitch:
		if a.Target == "on" {
			return "🛑 *Kill switch ON* (console)", true
		}
		return "✅ *Kill switch OFF* (console)", true
	case console.ActionSetMode:
		return fmt.Sprintf("🔁 *Mode* set to %s", a.Target), true
	case console.ActionCancelOrder:
		return fmt.Sprintf("❌ *Cancelled* %s %s", a.Detail, a.Target), true
	case console.ActionRunStrategy:
		if a.Detail == "" {
			return "▶️ *Strategy run*", true
		}
		return fmt.Sprintf("▶️ *Strategy run*: %s", a.Detail), true
	default:
		return "", false
	}
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
