package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	cd := decodeCallback(cb.Data)

	if cd.Action != actionQuiz {
		h.logger.Debug("unknown callback action", zap.String("data", cb.Data))
		h.answerCallback(cb.ID, "")
		return
	}

	switch cd.param(0) {
	case quizStart:
		h.answerCallback(cb.ID, "")
		h.removeKeyboard(chatID, cb.Message.MessageID)
		_ = h.withErrorHandling(h.startQuiz)(ctx, chatID)

	case quizAnswer:
		h.handleAnswerCallback(ctx, cb, cd)

	case quizNext:
		round, ok := parseNextParams(cd)
		if !ok {
			h.logger.Debug("invalid next callback", zap.String("data", cb.Data))
			h.answerCallback(cb.ID, "")
			return
		}
		h.answerCallback(cb.ID, "")
		h.removeKeyboard(chatID, cb.Message.MessageID)
		_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
			return h.advance(ctx, chatID, round)
		})(ctx, chatID)

	default:
		h.logger.Debug("unknown quiz callback", zap.String("data", cb.Data))
		h.answerCallback(cb.ID, "")
	}
}

func (h *Handler) handleAnswerCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) {
	chatID := cb.Message.Chat.ID

	round, movieID, ok := parseAnswerParams(cd)
	if !ok {
		h.logger.Debug("invalid answer callback", zap.String("data", cb.Data))
		h.answerCallback(cb.ID, "")
		return
	}

	res, err := h.quiz.Answer(chatID, round, movieID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrStaleResponse):
		h.answerCallback(cb.ID, msgRoundExpired)
		h.removeKeyboard(chatID, cb.Message.MessageID)
		return
	case errors.Is(err, service.ErrAnswerIgnored):
		h.answerCallback(cb.ID, msgAlreadyAnswered)
		return
	case errors.Is(err, service.ErrNoSession):
		h.answerCallback(cb.ID, msgNoGame)
		return
	default:
		h.answerCallback(cb.ID, "")
		h.logger.Error("failed to score answer",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		h.send(newHTMLMessage(chatID, msgInternalError))
		return
	}

	h.answerCallback(cb.ID, "")
	h.removeKeyboard(chatID, cb.Message.MessageID)
	h.renderFeedback(ctx, chatID, res)
}

// answerCallback removes the user's "clock" and optionally shows a toast.
func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Warn("callback answer error", zap.Error(err))
	}
}

func (h *Handler) removeKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, emptyKeyboard())
	if _, err := h.bot.Request(edit); err != nil {
		h.logger.Warn("failed to remove keyboard",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
	}
}
