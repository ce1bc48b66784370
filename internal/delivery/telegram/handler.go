package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
	"github.com/olekszij/tmdb-quiz/internal/logger"
	"github.com/olekszij/tmdb-quiz/internal/service"
	"github.com/olekszij/tmdb-quiz/internal/tmdb"
)

type Handler struct {
	bot         BotAPI
	logger      *zap.Logger
	quiz        QuizService
	images      ImageURLs
	autoAdvance time.Duration

	wg sync.WaitGroup
}

// NewHandler creates a new Handler. A positive autoAdvance loads the next
// round on its own once the feedback has been shown for that long.
func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	quiz QuizService,
	images ImageURLs,
	autoAdvance time.Duration,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		quiz:        quiz,
		images:      images,
		autoAdvance: autoAdvance,
	}
}

// Run polls updates until ctx is done. Each update is handled in its own
// goroutine so that a slow round does not block other chats.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	defer h.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.handleUpdate(ctx, update)
			}()
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	chatID := update.Message.Chat.ID

	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.String("text", update.Message.Text),
	)

	if !update.Message.IsCommand() {
		h.send(newHTMLMessage(chatID, msgHelp))
		return
	}

	switch update.Message.Command() {
	case "start":
		h.send(newHTMLMessage(chatID, msgWelcome))
		_ = h.withErrorHandling(h.startQuiz)(ctx, chatID)

	case "quiz":
		_ = h.withErrorHandling(h.startQuiz)(ctx, chatID)

	case "score":
		_ = h.withErrorHandling(h.showScore)(ctx, chatID)

	case "help":
		h.send(newHTMLMessage(chatID, msgHelp))

	default:
		h.send(newHTMLMessage(chatID, msgUnknownCommand))
	}
}

// startQuiz drops the chat's game and shows the first round of a new one.
func (h *Handler) startQuiz(ctx context.Context, chatID int64) error {
	loadingID := h.sendLoading(chatID)
	round, err := h.quiz.Start(ctx, chatID)
	h.deleteMessage(chatID, loadingID)

	return h.handleRoundResult(chatID, round, err)
}

// advance leaves the feedback of round fromIndex and shows the next round.
func (h *Handler) advance(ctx context.Context, chatID int64, fromIndex uint64) error {
	loadingID := h.sendLoading(chatID)
	round, err := h.quiz.NextRound(ctx, chatID, fromIndex)
	h.deleteMessage(chatID, loadingID)

	return h.handleRoundResult(chatID, round, err)
}

func (h *Handler) handleRoundResult(chatID int64, round *entities.Round, err error) error {
	log := logger.ForChat(h.logger, chatID)

	switch {
	case err == nil:
		h.renderRound(chatID, round)
		return nil

	case errors.Is(err, service.ErrStaleResponse):
		log.Debug("round superseded", zap.Error(err))
		return nil

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Debug("round loading interrupted", zap.Error(err))
		return nil

	case errors.Is(err, service.ErrNoSession):
		h.send(newHTMLMessage(chatID, msgNoGame))
		return nil

	case errors.Is(err, service.ErrSessionFailed):
		h.sendSessionError(chatID)
		return nil

	default:
		return err
	}
}

func (h *Handler) showScore(_ context.Context, chatID int64) error {
	view, err := h.quiz.View(chatID)
	if errors.Is(err, service.ErrNoSession) {
		h.send(newHTMLMessage(chatID, msgNoGame))
		return nil
	}
	if err != nil {
		return err
	}

	h.send(newHTMLMessage(chatID, formatScore(view)))
	return nil
}

// renderRound shows the target backdrops followed by the answer options.
func (h *Handler) renderRound(chatID int64, r *entities.Round) {
	urls := backdropURLs(h.images, r)
	caption := formatRoundCaption(r)

	switch len(urls) {
	case 0:
		h.send(newHTMLMessage(chatID, caption))
	case 1:
		h.send(buildPhoto(chatID, urls[0], caption))
	default:
		if _, err := h.bot.SendMediaGroup(buildBackdropGroup(chatID, urls, caption)); err != nil {
			h.logger.Error("failed to send backdrops",
				zap.Int64("chat_id", chatID),
				zap.Uint64("round", r.Index),
				zap.Error(err),
			)
		}
	}

	msg := newHTMLMessage(chatID, msgQuestion)
	msg.ReplyMarkup = buildOptionsKeyboard(r)
	h.send(msg)
}

// renderFeedback shows the target poster with the answer outcome.
func (h *Handler) renderFeedback(ctx context.Context, chatID int64, res *service.AnswerResult) {
	text := formatFeedback(res)
	kb := buildFeedbackKeyboard(res.Round.Index, res.Correct)

	var c tgbotapi.Chattable
	if poster := h.images.URL(tmdb.Poster, res.Round.Target.PosterPath); poster != "" {
		photo := buildPhoto(chatID, poster, text)
		photo.ReplyMarkup = kb
		c = photo
	} else {
		msg := newHTMLMessage(chatID, text)
		msg.ReplyMarkup = kb
		c = msg
	}

	m, err := h.bot.Send(c)
	if err != nil {
		h.logger.Error("failed to send feedback",
			zap.Int64("chat_id", chatID),
			zap.Uint64("round", res.Round.Index),
			zap.Error(err),
		)
	}

	if h.autoAdvance > 0 {
		h.scheduleAdvance(ctx, chatID, res.Round.Index, m.MessageID)
	}
}

// scheduleAdvance loads the next round after autoAdvance unless the player
// has already moved on. feedbackID is the message carrying the feedback button, 0 if unknown.
func (h *Handler) scheduleAdvance(ctx context.Context, chatID int64, fromIndex uint64, feedbackID int) {
	time.AfterFunc(h.autoAdvance, func() {
		if ctx.Err() != nil {
			return
		}
		_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
			return h.autoAdvanceFrom(ctx, chatID, fromIndex, feedbackID)
		})(ctx, chatID)
	})
}

// autoAdvanceFrom advances only while round fromIndex still shows its feedback,
// so a round the player already left produces no loading placeholder.
func (h *Handler) autoAdvanceFrom(ctx context.Context, chatID int64, fromIndex uint64, feedbackID int) error {
	view, err := h.quiz.View(chatID)
	if errors.Is(err, service.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if view.RoundIndex != fromIndex || view.Mode != entities.ModeFeedback {
		logger.ForChat(h.logger, chatID).Debug("auto advance skipped",
			zap.Uint64("round", fromIndex),
			zap.Uint64("current_round", view.RoundIndex),
		)
		return nil
	}

	if feedbackID != 0 {
		h.removeKeyboard(chatID, feedbackID)
	}
	return h.advance(ctx, chatID, fromIndex)
}

func (h *Handler) sendSessionError(chatID int64) {
	text := msgInternalError
	if view, err := h.quiz.View(chatID); err == nil && view.ErrMessage != "" {
		text = esc(view.ErrMessage)
	}

	msg := newHTMLMessage(chatID, "⚠️ "+text)
	msg.ReplyMarkup = buildNewGameKeyboard()
	h.send(msg)
}

// sendLoading sends the loading placeholder and returns its message id, 0 on failure.
func (h *Handler) sendLoading(chatID int64) int {
	m, err := h.bot.Send(tgbotapi.NewMessage(chatID, msgLoading))
	if err != nil {
		h.logger.Error("failed to send loading message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return 0
	}
	return m.MessageID
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		h.logger.Warn("failed to delete message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
	}
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
