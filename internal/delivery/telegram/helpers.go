package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
	"github.com/olekszij/tmdb-quiz/internal/tmdb"
)

// esc escapes plain text for HTML parse mode.
func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

// backdropURLs resolves the backdrops of the round target.
func backdropURLs(images ImageURLs, r *entities.Round) []string {
	urls := make([]string, 0, len(r.Target.BackdropPaths))
	for _, p := range r.Target.BackdropPaths {
		if u := images.URL(tmdb.Backdrop, p); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// buildBackdropGroup builds an album of backdrops, the caption goes on the first one.
// Telegram albums need at least two items, so callers send a single photo otherwise.
func buildBackdropGroup(chatID int64, urls []string, caption string) tgbotapi.MediaGroupConfig {
	files := make([]interface{}, 0, len(urls))
	for i, u := range urls {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(u))
		if i == 0 {
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeHTML
		}
		files = append(files, photo)
	}
	return tgbotapi.NewMediaGroup(chatID, files)
}

func buildPhoto(chatID int64, url, caption string) tgbotapi.PhotoConfig {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	return photo
}
