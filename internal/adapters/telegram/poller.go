package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aquatallyon/internal/adapters/chat"
)

// longPollSeconds is the getUpdates long-poll window.
const longPollSeconds = 60

// Handler receives converted chat events.
type Handler interface {
	HandleCommand(ctx context.Context, cmd chat.Command)
	HandleButton(ctx context.Context, press chat.ButtonPress)
}

// Poller long-polls for updates and runs each one on its own goroutine.
type Poller struct {
	bot     *tgbotapi.BotAPI
	handler Handler
}

// Connect authenticates with the Bot API.
// PRE: token is a bot token from BotFather
// POST: Returns a connected bot or the authentication error
func Connect(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	slog.Info("telegram_connected", "bot", bot.Self.UserName)
	return bot, nil
}

// NewPoller creates a poller that dispatches to handler.
func NewPoller(bot *tgbotapi.BotAPI, handler Handler) *Poller {
	return &Poller{bot: bot, handler: handler}
}

// Run polls until ctx is done, then waits for in-flight handlers.
// Handlers run detached from ctx cancellation so a shutdown lets them reply.
// PRE: called once
// POST: returns nil after ctx is done and every handler has returned
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = longPollSeconds
	updates := p.bot.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			slog.Info("telegram_polling_stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				dispatch(handlerCtx, p.handler, update)
			}()
		}
	}
}

// dispatch routes one update to the handler.
func dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if press, ok := pressFromCallback(update.CallbackQuery); ok {
			h.HandleButton(ctx, press)
		}
		return
	}
	if cmd, ok := commandFromMessage(update.Message); ok {
		h.HandleCommand(ctx, cmd)
	}
}
