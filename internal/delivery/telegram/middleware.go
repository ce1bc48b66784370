package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/logger"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling logs a failed handler against its chat and tells the player
// something went wrong. Errors caused by shutdown are only logged.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		if err == nil {
			return nil
		}

		log := logger.ForChat(h.logger, chatID)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			log.Debug("handler interrupted", zap.Error(err))
			return nil
		}

		log.Error("handle error", zap.Error(err))
		h.send(newHTMLMessage(chatID, msgInternalError))
		return nil
	}
}
