package telegram

import (
	"net"
	"strconv"
	"time"

	coreconfig "github.com/roskarniz/regbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// allowedUpdates restricts Telegram to plain messages; contacts arrive as messages.
var allowedUpdates = []string{"message"}

// NewPoller picks the update source for the configured run mode. cfg must be normalized.
func NewPoller(cfg coreconfig.TelegramConfig, wh coreconfig.WebhookConfig) tele.Poller {
	if cfg.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(wh.Listen, strconv.Itoa(wh.Port)),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: wh.URL},
			AllowedUpdates: allowedUpdates,
		}
	}
	return &tele.LongPoller{
		Timeout:        longPollTimeout(cfg.LongPollTimeoutSeconds),
		AllowedUpdates: allowedUpdates,
	}
}

func longPollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(seconds) * time.Second
}
