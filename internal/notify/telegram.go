package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Railwatch/models"
)

// botAPI is the slice of tgbotapi.BotAPI the notifier needs
type botAPI interface {
	GetMe() (tgbotapi.User, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram pushes alert summaries to the operator chat. It starts in the
// default permission state; the first permission request probes the bot
// credentials and settles the state to granted or denied.
type Telegram struct {
	api     botAPI
	chatID  int64
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu         sync.Mutex
	permission models.Permission
}

// NewTelegram builds a notifier from a bot token and target chat
func NewTelegram(token string, chatID int64, logger zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return newTelegram(bot, chatID, logger), nil
}

func newTelegram(api botAPI, chatID int64, logger zerolog.Logger) *Telegram {
	return &Telegram{
		api:    api,
		chatID: chatID,
		// Telegram allows ~30 msgs/sec per bot; one per second is plenty
		// for alerts and keeps bursts from tripping the API limiter
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
		logger:     logger.With().Str("component", "telegram_notifier").Logger(),
		permission: models.PermissionDefault,
	}
}

// Permission returns the current notification permission state
func (t *Telegram) Permission() models.Permission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permission
}

// RequestPermission probes the bot credentials and settles the tri-state.
// A denied outcome is final for the session; it is never retried here.
func (t *Telegram) RequestPermission(ctx context.Context) error {
	me, err := t.api.GetMe()

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.permission = models.PermissionDenied
		return fmt.Errorf("telegram permission probe: %w", err)
	}

	t.permission = models.PermissionGranted
	t.logger.Info().Str("username", me.UserName).Msg("telegram notifications enabled")
	return nil
}

// Send delivers a short anomaly summary. Sends past the rate limit are
// dropped silently; a live alert feed must never back up on Telegram.
func (t *Telegram) Send(ctx context.Context, a models.Anomaly) error {
	if !t.limiter.Allow() {
		t.logger.Debug().Str("id", a.ID).Msg("notification dropped by rate limit")
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, formatAlert(a))
	msg.ParseMode = "Markdown"

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sending telegram alert: %w", err)
	}
	return nil
}

func formatAlert(a models.Anomaly) string {
	return fmt.Sprintf(
		"🚨 *Fraud Alert*\n\n"+
			"%s\n"+
			"Transaction: `%s`\n"+
			"Severity: *%s* (%d%% confidence)\n"+
			"Tickets: %d\n"+
			"Amount: Rp %d\n"+
			"Detected: %s",
		a.Title, a.ID, a.Severity, a.ConfidencePercent,
		a.AffectedTickets, a.FinalPrice, a.DetectedAt,
	)
}
