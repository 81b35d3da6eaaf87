package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avdeyev/parish-ledger/internal/domain/inventory"
	"github.com/avdeyev/parish-ledger/internal/domain/promises"
)

var _ promises.Notifier = (*Telegram)(nil)

// Telegram posts operational alerts to the admin chat. Every send is
// best effort: failures are logged and swallowed so record keeping
// never depends on the messenger being up.
type Telegram struct {
	api  *tgbotapi.BotAPI
	chat int64
	log  *slog.Logger
}

func NewTelegram(token string, adminChatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api, chat: adminChatID, log: log}, nil
}

func (t *Telegram) LowStock(items []inventory.Item) {
	if len(items) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("Low stock:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "• %s %s — %.2f left (threshold %.2f)\n",
			it.Number, it.Name, it.Quantity, it.LowStockThreshold)
	}
	t.send(b.String())
}

func (t *Telegram) PromiseFulfilled(promiseNumber, transactionNumber string, amount float64) {
	t.send(fmt.Sprintf("Promise %s fulfilled: %s for %.2f", promiseNumber, transactionNumber, amount))
}

func (t *Telegram) send(text string) {
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chat, text)); err != nil {
		t.log.Warn("telegram send failed", "err", err)
	}
}
