package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"nexus-terminal/internal/bot"
	"nexus-terminal/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// MarketData resolves coin data for the /price command.
type MarketData interface {
	GetCoin(ctx context.Context, symbol string) (*domain.CoinData, error)
}

// EngineStatus exposes the bot engine to the /bot command.
type EngineStatus interface {
	Snapshot() bot.Status
}

// Telegram pushes engine notifications to the operator's chat and
// answers a few query commands. Implements the engine's Notifier.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
}

// StartTelegram wires the Telegram bot. Returns nil when no token is
// configured; callers treat a nil *Telegram as "no notifier".
func StartTelegram(market MarketData, engine EngineStatus) *Telegram {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	var chatID int64
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("invalid TELEGRAM_CHAT_ID %q, push notifications disabled: %v", raw, err)
			chatID = 0
		}
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /price BTC")
		}
		symbol := strings.ToUpper(args[0])
		coin, err := market.GetCoin(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Unknown symbol: %s", symbol))
		}
		msg := fmt.Sprintf(
			"%s (%s)\nPrice: $%.2f\n24h Change: %+.2f%%\n8w SMA: $%.2f\nTrend: %s",
			coin.Name, symbol, coin.Price, coin.Change24hPct, coin.SMA8w, coin.Supertrend,
		)
		return c.Send(msg)
	})

	b.Handle("/bot", func(c tele.Context) error {
		st := engine.Snapshot()
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Phase: %s\nBalance: $%.2f\n", st.Phase, st.Balance))
		sb.WriteString(fmt.Sprintf("Trades: %d | Win rate: %.1f%% | Net P&L: %+.2f\n",
			st.Performance.TotalTrades, st.Performance.WinRatePct, st.Performance.NetPnl))
		if st.Pending != nil {
			sb.WriteString(fmt.Sprintf("Pending: %s %s @ $%.2f (%d%%)\n",
				st.Pending.Direction, st.Pending.Asset, st.Pending.EntryPrice, st.Pending.Confidence))
		}
		if st.Position != nil {
			sb.WriteString(fmt.Sprintf("Open: %s %s %dx, P&L %+.2f%% ($%+.2f)\n",
				st.Position.Direction, st.Position.Asset, st.Position.Leverage,
				st.Position.PnlPct, st.Position.PnlUSD))
		}
		return c.Send(sb.String())
	})

	log.Println("Telegram bot started")
	go b.Start()

	return &Telegram{bot: b, chatID: chatID}
}

// Notify pushes one message to the configured chat. A missing chat ID
// makes this a no-op; command handling still works.
func (t *Telegram) Notify(level domain.LogLevel, message string) {
	if t == nil || t.chatID == 0 {
		return
	}
	text := fmt.Sprintf("[%s] %s", level, message)
	if _, err := t.bot.Send(&tele.Chat{ID: t.chatID}, text); err != nil {
		log.Printf("telegram notify failed: %v", err)
	}
}
