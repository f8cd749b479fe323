package broker

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mihretdev/cardarena-services/internal/tradesvc/exchange"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// TelegramNotifier pushes settlement summaries to the staff chats so
// suspicious trades surface quickly.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewTelegramNotifier(botToken string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

// InitTelegramNotifier builds the notifier from the environment.
// Returns nil when unconfigured; a nil notifier is safe to use.
func InitTelegramNotifier() *TelegramNotifier {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, trade notifications disabled")
		return nil
	}

	var chatIDs []int64
	for i := 1; i <= 3; i++ {
		chatIDStr := os.Getenv(fmt.Sprintf("TELEGRAM_CHAT_ID_%d", i))
		if chatIDStr == "" {
			continue
		}
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Errorf("Invalid TELEGRAM_CHAT_ID_%d format: %v", i, err)
			continue
		}
		chatIDs = append(chatIDs, chatID)
	}
	if len(chatIDs) == 0 {
		log.Warn("No valid telegram chat IDs found, trade notifications disabled")
		return nil
	}

	notifier, err := NewTelegramNotifier(botToken, chatIDs)
	if err != nil {
		log.Errorf("Failed to initialize Telegram notifier: %v", err)
		return nil
	}

	log.Infof("Telegram notifier initialized with %d chat IDs", len(chatIDs))
	return notifier
}

func (tn *TelegramNotifier) send(message string) {
	if tn == nil || tn.bot == nil {
		return
	}
	for _, chatID := range tn.chatIDs {
		go func(cid int64) {
			msg := tgbotapi.NewMessage(cid, message)
			msg.ParseMode = "Markdown"
			if _, err := tn.bot.Send(msg); err != nil {
				log.Errorf("Failed to send telegram message to chat %d: %v", cid, err)
			}
		}(chatID)
	}
}

// NotifySettlement reports a completed exchange or trade.
func (tn *TelegramNotifier) NotifySettlement(s *exchange.Settlement) {
	tn.send(fmt.Sprintf(
		"*EXCHANGE SETTLED*\n\n"+
			"*Ref:* %s\n"+
			"*%s* gave %d card(s) + %s coins\n"+
			"*%s* gave %d card(s) + %s coins\n"+
			"*Time:* %s",
		s.Ref,
		s.A.Name, len(s.A.CardIds), s.A.Coins.StringFixed(0),
		s.B.Name, len(s.B.CardIds), s.B.Coins.StringFixed(0),
		time.Now().Format("2006-01-02 15:04:05"),
	))
}
