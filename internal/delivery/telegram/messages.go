// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
	"github.com/olekszij/tmdb-quiz/internal/service"
)

const (
	msgWelcome = "🎬 <b>Guess the Movie</b>\n\n" +
		"I show you frames from a movie, you pick its title out of four.\n" +
		"Right answer: +1 point. Wrong answer: −3 points and your streak is gone.\n" +
		"Keep a streak of 5 or 10 to earn badges!"
	msgHelp = "Commands:\n\n" +
		"/quiz - start a new game\n" +
		"/score - show your score, streak and badges\n" +
		"/help - show this message"
	msgLoading         = "Loading..."
	msgQuestion        = "Which movie is this?"
	msgNoGame          = "No game yet. Send /quiz to start!"
	msgAlreadyAnswered = "This question is already answered."
	msgRoundExpired    = "This question is no longer active."
	msgInternalError   = "Something went wrong. Please try again later."
	msgUnknownCommand  = "Unknown command.\n\n" + msgHelp
)

// formatRoundCaption builds the caption of the backdrops of a round.
func formatRoundCaption(r *entities.Round) string {
	return fmt.Sprintf("<b>Round %d</b>: guess the movie!", r.Index)
}

// formatFeedback builds the feedback text shown after an answer.
func formatFeedback(res *service.AnswerResult) string {
	var sb strings.Builder

	sb.WriteString("<b>")
	sb.WriteString(esc(res.Message))
	sb.WriteString("</b>")

	if res.Reward != "" {
		sb.WriteString("\n\n🏅 ")
		sb.WriteString(esc(res.Reward))
	}

	sb.WriteString("\n\n")
	sb.WriteString(formatScoreLine(res.Score))

	return sb.String()
}

func formatScoreLine(s entities.ScoreState) string {
	return fmt.Sprintf("Score: <b>%d</b> · Streak: <b>%d</b>", s.Score, s.Streak)
}

// formatScore renders the /score screen.
func formatScore(view *service.SessionView) string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Your game</b>\n\n")
	sb.WriteString(formatScoreLine(view.Score))
	sb.WriteString("\n")

	badges := sortedBadges(view.Score)
	if len(badges) == 0 {
		sb.WriteString("Badges: none yet")
	} else {
		sb.WriteString("Badges: ")
		names := make([]string, 0, len(badges))
		for _, b := range badges {
			names = append(names, "🏅 "+esc(string(b)))
		}
		sb.WriteString(strings.Join(names, ", "))
	}

	if view.Mode == entities.ModeError && view.ErrMessage != "" {
		sb.WriteString("\n\n⚠️ ")
		sb.WriteString(esc(view.ErrMessage))
	}

	return sb.String()
}

// sortedBadges lists earned badges in the order of their streak thresholds.
func sortedBadges(s entities.ScoreState) []entities.Badge {
	order := []entities.Badge{entities.BadgeSilverCinematographer, entities.BadgeGoldDirector}

	out := make([]entities.Badge, 0, len(s.Badges))
	for _, b := range order {
		if s.HasBadge(b) {
			out = append(out, b)
		}
	}
	return out
}

// feedbackButtonText mirrors the tone of the answer.
func feedbackButtonText(correct bool) string {
	if correct {
		return "Great!"
	}
	return "Try Again"
}
