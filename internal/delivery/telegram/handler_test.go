package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
	"github.com/olekszij/tmdb-quiz/internal/service"
	"github.com/olekszij/tmdb-quiz/internal/tmdb"
)

const testChatID int64 = 100

// fakeBot records everything the handler sends.
type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	groups   []tgbotapi.MediaGroupConfig
	updates  chan tgbotapi.Update
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update)}
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.groups = append(b.groups, cfg)
	return nil, nil
}

func (b *fakeBot) sentMessages() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.sent...)
}

func (b *fakeBot) callbackAnswers() []tgbotapi.CallbackConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.CallbackConfig
	for _, r := range b.requests {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (b *fakeBot) count(match func(tgbotapi.Chattable) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, r := range b.requests {
		if match(r) {
			n++
		}
	}
	return n
}

// fakeQuiz implements QuizService with overridable funcs.
type fakeQuiz struct {
	start  func(ctx context.Context, chatID int64) (*entities.Round, error)
	next   func(ctx context.Context, chatID int64, fromIndex uint64) (*entities.Round, error)
	answer func(chatID int64, roundIndex uint64, movieID int64) (*service.AnswerResult, error)
	view   func(chatID int64) (*service.SessionView, error)
}

func (q *fakeQuiz) Start(ctx context.Context, chatID int64) (*entities.Round, error) {
	return q.start(ctx, chatID)
}

func (q *fakeQuiz) NextRound(ctx context.Context, chatID int64, fromIndex uint64) (*entities.Round, error) {
	return q.next(ctx, chatID, fromIndex)
}

func (q *fakeQuiz) Answer(chatID int64, roundIndex uint64, movieID int64) (*service.AnswerResult, error) {
	return q.answer(chatID, roundIndex, movieID)
}

func (q *fakeQuiz) View(chatID int64) (*service.SessionView, error) {
	return q.view(chatID)
}

func testRound(index uint64, backdrops ...string) *entities.Round {
	target := entities.Movie{ID: 42, Title: "Heat", PosterPath: "/heat.jpg", BackdropPaths: backdrops}
	return &entities.Round{
		Index:  index,
		Target: target,
		Options: []entities.Movie{
			{ID: 7, Title: "Alien"},
			target,
			{ID: 8, Title: "Ronin"},
			{ID: 9, Title: "Brazil"},
		},
		Mode: entities.ModeActive,
	}
}

func newTestHandler(t *testing.T, bot *fakeBot, quiz *fakeQuiz, autoAdvance time.Duration) *Handler {
	t.Helper()

	images, err := tmdb.NewImageURLs("https://image.tmdb.org/t/p", "image.tmdb.org")
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(bot, zap.NewNop(), quiz, images, autoAdvance)
}

func commandUpdate(cmd string) tgbotapi.Update {
	text := "/" + cmd
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: testChatID},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(text)},
			},
		},
	}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: 1},
			Message: &tgbotapi.Message{
				MessageID: 55,
				Chat:      &tgbotapi.Chat{ID: testChatID},
			},
			Data: data,
		},
	}
}

func messageText(c tgbotapi.Chattable) string {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.PhotoConfig:
		return m.Caption
	}
	return ""
}

func TestQuizCommandRendersRound(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		start: func(context.Context, int64) (*entities.Round, error) {
			return testRound(1, "/a.jpg", "/b.jpg", "/c.jpg"), nil
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), commandUpdate("quiz"))

	sent := bot.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("expected loading and options messages, got %d", len(sent))
	}
	if messageText(sent[0]) != msgLoading {
		t.Fatalf("first message %q", messageText(sent[0]))
	}

	deleted := bot.count(func(c tgbotapi.Chattable) bool {
		d, ok := c.(tgbotapi.DeleteMessageConfig)
		return ok && d.MessageID == 1
	})
	if deleted != 1 {
		t.Fatalf("loading message not deleted")
	}

	if len(bot.groups) != 1 || len(bot.groups[0].Media) != 3 {
		t.Fatalf("expected one album of 3 backdrops, got %+v", bot.groups)
	}
	first := bot.groups[0].Media[0].(tgbotapi.InputMediaPhoto)
	if url := string(first.Media.(tgbotapi.FileURL)); url != "https://image.tmdb.org/t/p/w780/a.jpg" {
		t.Fatalf("backdrop url %q", url)
	}

	options, ok := sent[1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("options message is %T", sent[1])
	}
	kb := options.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if len(kb.InlineKeyboard) != 2 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected 2x2 keyboard, got %+v", kb.InlineKeyboard)
	}
	if got := *kb.InlineKeyboard[0][1].CallbackData; got != "quiz:answer:1:42" {
		t.Fatalf("callback data %q", got)
	}
}

func TestSingleBackdropSentAsPhoto(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		start: func(context.Context, int64) (*entities.Round, error) {
			return testRound(1, "/only.jpg"), nil
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), commandUpdate("quiz"))

	if len(bot.groups) != 0 {
		t.Fatalf("album sent for a single backdrop")
	}
	sent := bot.sentMessages()
	if len(sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sent))
	}
	if _, ok := sent[1].(tgbotapi.PhotoConfig); !ok {
		t.Fatalf("backdrop is %T", sent[1])
	}
}

func TestAnswerCallbackShowsFeedback(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		answer: func(_ int64, round uint64, movieID int64) (*service.AnswerResult, error) {
			if round != 3 || movieID != 42 {
				t.Errorf("answer(%d, %d)", round, movieID)
			}
			r := testRound(3, "/a.jpg")
			r.Mode = entities.ModeFeedback
			return &service.AnswerResult{
				Round:   *r,
				Correct: true,
				Message: "Correct! 🎉",
				Badge:   entities.BadgeSilverCinematographer,
				Reward:  entities.RewardMessage(entities.BadgeSilverCinematographer, 5),
				Score:   entities.ScoreState{Score: 5, Streak: 5},
			}, nil
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), callbackUpdate("quiz:answer:3:42"))

	sent := bot.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected feedback only, got %d messages", len(sent))
	}
	photo, ok := sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("feedback is %T", sent[0])
	}
	if url := string(photo.File.(tgbotapi.FileURL)); url != "https://image.tmdb.org/t/p/w500/heat.jpg" {
		t.Fatalf("poster url %q", url)
	}
	if !strings.Contains(photo.Caption, "Correct!") || !strings.Contains(photo.Caption, "Silver Cinematographer") {
		t.Fatalf("caption %q", photo.Caption)
	}

	kb := photo.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	button := kb.InlineKeyboard[0][0]
	if button.Text != "Great!" || *button.CallbackData != "quiz:next:3" {
		t.Fatalf("feedback button %q %q", button.Text, *button.CallbackData)
	}

	removed := bot.count(func(c tgbotapi.Chattable) bool {
		_, ok := c.(tgbotapi.EditMessageReplyMarkupConfig)
		return ok
	})
	if removed != 1 {
		t.Fatalf("options keyboard not removed")
	}
}

func TestStaleAnswerCallback(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		answer: func(int64, uint64, int64) (*service.AnswerResult, error) {
			return nil, service.ErrStaleResponse
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), callbackUpdate("quiz:answer:1:42"))

	if len(bot.sentMessages()) != 0 {
		t.Fatalf("stale answer produced messages")
	}
	answers := bot.callbackAnswers()
	if len(answers) != 1 || answers[0].Text != msgRoundExpired {
		t.Fatalf("callback answers %+v", answers)
	}
}

func TestRepeatedAnswerCallback(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		answer: func(int64, uint64, int64) (*service.AnswerResult, error) {
			return nil, fmt.Errorf("%w: round 1 is feedback", service.ErrAnswerIgnored)
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), callbackUpdate("quiz:answer:1:7"))

	answers := bot.callbackAnswers()
	if len(answers) != 1 || answers[0].Text != msgAlreadyAnswered {
		t.Fatalf("callback answers %+v", answers)
	}
}

func TestSessionFailureShowsErrorMessage(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		next: func(_ context.Context, _ int64, from uint64) (*entities.Round, error) {
			if from != 4 {
				t.Errorf("next from %d", from)
			}
			return nil, fmt.Errorf("%w: %w", service.ErrSessionFailed, service.ErrInsufficientCandidates)
		},
		view: func(int64) (*service.SessionView, error) {
			return &service.SessionView{Mode: entities.ModeError, ErrMessage: "no movies"}, nil
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), callbackUpdate("quiz:next:4"))

	sent := bot.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("expected loading and error messages, got %d", len(sent))
	}
	msg := sent[1].(tgbotapi.MessageConfig)
	if !strings.Contains(msg.Text, "no movies") {
		t.Fatalf("error text %q", msg.Text)
	}
	kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if *kb.InlineKeyboard[0][0].CallbackData != buildQuizStartCallback() {
		t.Fatalf("expected new game button")
	}
}

func TestSupersededRoundIsNotRendered(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		next: func(context.Context, int64, uint64) (*entities.Round, error) {
			return nil, service.ErrStaleResponse
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), callbackUpdate("quiz:next:2"))

	sent := bot.sentMessages()
	if len(sent) != 1 || messageText(sent[0]) != msgLoading {
		t.Fatalf("expected only the loading message, got %d", len(sent))
	}
}

func TestScoreWithoutGame(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		view: func(int64) (*service.SessionView, error) {
			return nil, service.ErrNoSession
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), commandUpdate("score"))

	sent := bot.sentMessages()
	if len(sent) != 1 || messageText(sent[0]) != msgNoGame {
		t.Fatalf("unexpected reply %+v", sent)
	}
}

func TestScoreListsBadges(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		view: func(int64) (*service.SessionView, error) {
			score := entities.NewScoreState()
			score.Score, score.Streak = 7, 7
			score.Badges[entities.BadgeSilverCinematographer] = struct{}{}
			return &service.SessionView{Mode: entities.ModeActive, Score: score}, nil
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), commandUpdate("score"))

	text := messageText(bot.sentMessages()[0])
	if !strings.Contains(text, "Silver Cinematographer") || !strings.Contains(text, "<b>7</b>") {
		t.Fatalf("score text %q", text)
	}
}

func TestUnexpectedErrorReported(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		start: func(context.Context, int64) (*entities.Round, error) {
			return nil, fmt.Errorf("boom")
		},
	}
	h := newTestHandler(t, bot, quiz, 0)

	h.handleUpdate(context.Background(), commandUpdate("quiz"))

	sent := bot.sentMessages()
	if got := messageText(sent[len(sent)-1]); got != msgInternalError {
		t.Fatalf("last message %q", got)
	}
}

func TestAutoAdvance(t *testing.T) {
	bot := newFakeBot()
	advanced := make(chan uint64, 1)
	quiz := &fakeQuiz{
		answer: func(int64, uint64, int64) (*service.AnswerResult, error) {
			r := testRound(2, "/a.jpg")
			return &service.AnswerResult{Round: *r, Message: "Incorrect! The movie was: Heat"}, nil
		},
		view: func(int64) (*service.SessionView, error) {
			return &service.SessionView{Mode: entities.ModeFeedback, RoundIndex: 2}, nil
		},
		next: func(_ context.Context, _ int64, from uint64) (*entities.Round, error) {
			advanced <- from
			return nil, service.ErrStaleResponse
		},
	}
	h := newTestHandler(t, bot, quiz, 10*time.Millisecond)

	h.handleUpdate(context.Background(), callbackUpdate("quiz:answer:2:7"))

	select {
	case from := <-advanced:
		if from != 2 {
			t.Fatalf("advanced from %d", from)
		}
	case <-time.After(time.Second):
		t.Fatal("next round was not requested")
	}

	// The feedback photo is the first message sent, so it has id 1.
	removed := bot.count(func(c tgbotapi.Chattable) bool {
		e, ok := c.(tgbotapi.EditMessageReplyMarkupConfig)
		return ok && e.MessageID == 1
	})
	if removed != 1 {
		t.Fatalf("feedback keyboard not removed")
	}
}

func TestAutoAdvanceSkippedAfterPlayerMovedOn(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{
		view: func(int64) (*service.SessionView, error) {
			return &service.SessionView{Mode: entities.ModeActive, RoundIndex: 3}, nil
		},
		next: func(context.Context, int64, uint64) (*entities.Round, error) {
			t.Error("next round requested for a round already left")
			return nil, service.ErrStaleResponse
		},
	}
	h := newTestHandler(t, bot, quiz, time.Second)

	if err := h.autoAdvanceFrom(context.Background(), testChatID, 2, 9); err != nil {
		t.Fatalf("auto advance: %v", err)
	}

	if sent := bot.sentMessages(); len(sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(sent))
	}
	if n := bot.count(func(tgbotapi.Chattable) bool { return true }); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestInterruptedHandlerIsNotReported(t *testing.T) {
	bot := newFakeBot()
	h := newTestHandler(t, bot, &fakeQuiz{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.withErrorHandling(func(ctx context.Context, _ int64) error {
		return fmt.Errorf("load round: %w", ctx.Err())
	})(ctx, testChatID)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sent := bot.sentMessages(); len(sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(sent))
	}
}

func TestRunDispatchesUntilCancelled(t *testing.T) {
	bot := newFakeBot()
	quiz := &fakeQuiz{}
	h := newTestHandler(t, bot, quiz, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	bot.updates <- commandUpdate("help")
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	sent := bot.sentMessages()
	if len(sent) != 1 || messageText(sent[0]) != msgHelp {
		t.Fatalf("help not sent: %+v", sent)
	}
}
