package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/medovik-lab/honeybot-backend/pkg/logger"
)

const pollTimeoutSeconds = 60

// Poller long-polls the Bot API and feeds updates to the handler one at a
// time, so per-chat conversations observe a consistent order.
type Poller struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	logg    *logger.Logger
}

// NewPoller builds the update loop.
func NewPoller(api *tgbotapi.BotAPI, handler *Handler, logg *logger.Logger) *Poller {
	return &Poller{api: api, handler: handler, logg: logg}
}

// Run receives updates until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds

	updates := p.api.GetUpdatesChan(cfg)
	p.logg.Info(ctx, "bot update polling started")

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			p.logg.Info(ctx, "bot update polling stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.handler.HandleUpdate(ctx, update)
		}
	}
}
