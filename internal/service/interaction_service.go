package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/repository"
)

// Interaction is one delivery or answer of a question to a caller.
type Interaction struct {
	Question *model.Question
	// Selected answer indexes. Nil means the question was only shown;
	// non-nil and empty means the caller skipped it.
	Answers []int
	// Caller identity, both zero for anonymous callers.
	Email      string
	CallerHash string
}

type InteractionService interface {
	// Record grades the interaction and persists its side effects: the
	// question's answer counters and the caller's history. Both writes
	// are best effort; a failed write never fails the request.
	Record(ctx context.Context, in Interaction) model.AnswerState
}

type interactionService struct {
	questions repository.QuestionRepository
	users     repository.UserRepository
}

func NewInteractionService(questions repository.QuestionRepository, users repository.UserRepository) InteractionService {
	return &interactionService{questions: questions, users: users}
}

func (s *interactionService) Record(ctx context.Context, in Interaction) model.AnswerState {
	q := in.Question

	state := model.StateAsked
	switch {
	case in.Answers == nil:
		// shown, not answered - nothing to count
	case len(in.Answers) == 0:
		state = model.StateSkipped
	case q.IsCorrect(in.Answers):
		state = model.StateCorrect
	default:
		state = model.StateIncorrect
	}

	// authors reviewing their own questions leave no trace in either
	// the counters or their history
	isAuthor := in.CallerHash != "" && q.Author == in.CallerHash

	// counters also track anonymous answers
	if state != model.StateAsked && !isAuthor {
		if err := s.questions.IncrementStat(ctx, q.Topic, q.Qid, state.String()); err != nil {
			log.Error().Str("qid", q.Qid).Err(err).Msg("Failed to count answer")
		}
	}

	// history needs an identity
	if in.Email == "" || isAuthor {
		return state
	}

	entry := model.AskedQuestion{
		Topic:  q.Topic,
		Qid:    q.Qid,
		Status: model.AnswerStatus{State: state, When: time.Now().UTC()},
	}
	if err := s.users.AppendHistory(ctx, in.Email, []model.AskedQuestion{entry}); err != nil {
		log.Error().Str("qid", q.Qid).Err(err).Msg("Failed to record history")
	}

	return state
}
