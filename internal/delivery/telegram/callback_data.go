package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionQuiz = "quiz"
)

// Quiz sub-actions.
const (
	quizStart  = "start"
	quizAnswer = "answer"
	quizNext   = "next"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

func buildQuizStartCallback() string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizStart},
	}.encode()
}

// buildQuizAnswerCallback builds callback data for choosing an option of a round.
func buildQuizAnswerCallback(roundIndex uint64, movieID int64) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{
			quizAnswer,
			strconv.FormatUint(roundIndex, 10),
			strconv.FormatInt(movieID, 10),
		},
	}.encode()
}

// buildQuizNextCallback builds callback data for dismissing the feedback of a round.
func buildQuizNextCallback(roundIndex uint64) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizNext, strconv.FormatUint(roundIndex, 10)},
	}.encode()
}

// parseAnswerParams extracts round index and movie id from quiz:answer data.
func parseAnswerParams(cd callbackData) (uint64, int64, bool) {
	if len(cd.Params) != 3 {
		return 0, 0, false
	}
	round, err1 := strconv.ParseUint(cd.param(1), 10, 64)
	movieID, err2 := strconv.ParseInt(cd.param(2), 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return round, movieID, true
}

// parseNextParams extracts the round index from quiz:next data.
func parseNextParams(cd callbackData) (uint64, bool) {
	if len(cd.Params) != 2 {
		return 0, false
	}
	round, err := strconv.ParseUint(cd.param(1), 10, 64)
	if err != nil {
		return 0, false
	}
	return round, true
}
