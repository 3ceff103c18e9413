package notify

import (
	"testing"

	"nexus-terminal/internal/domain"
)

func TestStartTelegramWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	tg := StartTelegram(nil, nil)
	if tg != nil {
		t.Fatal("expected nil Telegram without token")
	}
}

func TestNotifyOnNilReceiver(t *testing.T) {
	var tg *Telegram
	// Must not panic; a nil notifier is the no-token path.
	tg.Notify(domain.LogSignal, "signal found")
}

func TestNotifyWithoutChatID(t *testing.T) {
	tg := &Telegram{chatID: 0}
	tg.Notify(domain.LogInfo, "ignored")
}
