package bot

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Run long-polls Telegram updates and answers /start with a button that
// opens the mini app. Referral payloads (ref_<id>) travel into the app via
// the startapp deep link, so the bot only has to open the door.
func Run(ctx context.Context, token, appLink string) error {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return err
	}
	log.Printf("🤖 Bot authorized on account %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() || update.Message.Command() != "start" {
				continue
			}

			link := appLink
			if payload := update.Message.CommandArguments(); strings.HasPrefix(payload, "ref_") {
				// Keep the referral payload on the button so it reaches the
				// mini app as start_param.
				link = appLink + "?startapp=" + payload
				log.Printf("ℹ️  /start with referral payload %s from %d", payload, update.Message.From.ID)
			}

			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Welcome! Click below to join:")
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonURL("Open App", link),
				),
			)
			if _, err := bot.Send(msg); err != nil {
				log.Printf("❌ Failed to send /start reply: %v", err)
			}
		}
	}
}
