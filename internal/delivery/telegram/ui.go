package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

const optionsPerRow = 2

// buildOptionsKeyboard builds keyboard with the titles of a round, two per row.
func buildOptionsKeyboard(r *entities.Round) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, option := range r.Options {
		button := tgbotapi.NewInlineKeyboardButtonData(option.Title, buildQuizAnswerCallback(r.Index, option.ID))
		row = append(row, button)
		if len(row) == optionsPerRow {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildFeedbackKeyboard builds keyboard for dismissing the answer feedback.
func buildFeedbackKeyboard(roundIndex uint64, correct bool) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(feedbackButtonText(correct), buildQuizNextCallback(roundIndex)),
		),
	)
}

// buildNewGameKeyboard builds keyboard offering a fresh game.
func buildNewGameKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 New game", buildQuizStartCallback()),
		),
	)
}

// emptyKeyboard removes inline buttons from an existing message.
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}
