package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
	"github.com/olekszij/tmdb-quiz/internal/service"
	"github.com/olekszij/tmdb-quiz/internal/tmdb"
)

// BotAPI is the subset of the Telegram client used by the handler.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

type QuizService interface {
	Start(ctx context.Context, chatID int64) (*entities.Round, error)
	NextRound(ctx context.Context, chatID int64, fromIndex uint64) (*entities.Round, error)
	Answer(chatID int64, roundIndex uint64, movieID int64) (*service.AnswerResult, error)
	View(chatID int64) (*service.SessionView, error)
}

type ImageURLs interface {
	URL(kind tmdb.ImageKind, path string) string
}
