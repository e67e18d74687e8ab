package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/application"
	"github.com/webb-rtk/shintek/internal/config"
	"github.com/webb-rtk/shintek/internal/domain/ports/adapter"
	"github.com/webb-rtk/shintek/internal/infra/logging"
	red "github.com/webb-rtk/shintek/internal/infra/redis"
	"github.com/webb-rtk/shintek/internal/usecase"
)

var _ adapter.MessengerAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter bridges Telegram updates to the bot facade using
// tgbotapi with concurrent polling workers.
type RealTelegramBotAdapter struct {
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
	facade  *application.BotFacade
	limiter *red.RateLimiter // nil disables rate limiting
	log     *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.Config, facade *application.BotFacade, limiter *red.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, err
	}

	workers := cfg.Bot.Workers
	if workers <= 0 {
		workers = 5
	}
	botLog := logger.With().Str("component", "TelegramBot").Logger()

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		limiter:       limiter,
		log:           &botLog,
		updateWorkers: workers,
	}, nil
}

// StartPolling begins polling Telegram for updates concurrently.
// It runs until ctx is canceled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, update); err != nil {
						r.log.Error().Err(err).Int("worker", workerID).Msg("error handling update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	// Dispatcher goroutine: feed updates into updateChan
	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendText delivers a plain text message to a chat.
func (r *RealTelegramBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	m := update.Message
	if m == nil || m.From == nil {
		return nil
	}

	ctx = logging.WithTraceID(ctx, ulid.Make().String())
	ctx = logging.WithChatID(ctx, m.Chat.ID)
	log := logging.With(ctx, r.log)

	if r.limiter != nil && r.cfg.RateLimit.Enabled {
		allowed, err := r.limiter.Allow(ctx, red.ChatTurnKey(m.Chat.ID), r.cfg.RateLimit.Limit, r.cfg.RateLimit.Window.Std())
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable, letting the turn through")
		} else if !allowed {
			return r.SendText(ctx, m.Chat.ID, "You're sending messages too fast. Give me a minute.")
		}
	}

	ident := r.identityFor(m)

	var reply string
	var err error
	switch {
	case m.Sticker != nil:
		reply, err = r.facade.HandleSticker(ctx, ident)
	case m.IsCommand():
		reply, err = r.handleCommand(ctx, ident, m)
	case m.Text != "":
		reply, err = r.facade.HandleText(ctx, ident, m.Text)
	default:
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", ident.UserID).Msg("update handling failed")
		reply = "Something went wrong on my side. Please try again."
	}
	if reply == "" {
		return nil
	}
	// A failed send is logged, not retried.
	if err := r.SendText(ctx, m.Chat.ID, reply); err != nil {
		log.Error().Err(err).Msg("delivery failed")
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleCommand(ctx context.Context, ident usecase.Identity, m *tgbotapi.Message) (string, error) {
	switch m.Command() {
	case "start":
		return r.facade.HandleStart(ctx, ident)
	case "reset":
		return r.facade.HandleReset(ident), nil
	case "role":
		return r.facade.HandleSetRole(ctx, ident, m.CommandArguments())
	case "roles":
		return r.facade.HandleRoles(ctx)
	case "whoami":
		return r.facade.HandleWhoAmI(ctx, ident)
	default:
		return "Unknown command. Try /start, /roles, /role, /whoami or /reset.", nil
	}
}

// identityFor builds the identity tuple: the sender, the group chat when
// the message came from one, and the receiving bot's username.
func (r *RealTelegramBotAdapter) identityFor(m *tgbotapi.Message) usecase.Identity {
	ident := usecase.Identity{
		UserID: strconv.FormatInt(m.From.ID, 10),
		BotID:  strings.TrimPrefix(r.cfg.Bot.Username, "@"),
	}
	if m.Chat != nil && (m.Chat.IsGroup() || m.Chat.IsSuperGroup()) {
		ident.GroupID = strconv.FormatInt(m.Chat.ID, 10)
	}
	return ident
}
