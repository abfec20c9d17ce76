package service

import (
	"context"
	"sort"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/internal/dto"
	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/repository"
)

type ListService interface {
	// Topic returns the published questions of one topic as list cards,
	// most recently updated first. When a user record is given, each
	// card carries that user's latest interaction with the question.
	Topic(ctx context.Context, topic string, user *model.User) ([]dto.QuestionSummary, error)
	// Mine returns all questions owned by the author hash, drafts
	// included.
	Mine(ctx context.Context, callerHash string) ([]dto.QuestionSummary, error)
}

type listService struct {
	repo repository.QuestionRepository
}

func NewListService(repo repository.QuestionRepository) ListService {
	return &listService{repo: repo}
}

func (s *listService) Topic(ctx context.Context, topic string, user *model.User) ([]dto.QuestionSummary, error) {
	if !model.IsValidTopic(topic) {
		return nil, repository.ErrNotFound
	}

	records, err := s.repo.ListPublishedByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}

	summaries := toSummaries(records)
	if user != nil {
		overlayHistory(summaries, user.Questions)
	}
	return summaries, nil
}

func (s *listService) Mine(ctx context.Context, callerHash string) ([]dto.QuestionSummary, error) {
	records, err := s.repo.ListByAuthor(ctx, callerHash)
	if err != nil {
		return nil, err
	}
	return toSummaries(records), nil
}

func toSummaries(records []repository.QuestionRecord) []dto.QuestionSummary {
	summaries := make([]dto.QuestionSummary, 0, len(records))
	for i := range records {
		rec := &records[i]

		var card dto.QuestionSummary
		if err := copier.Copy(&card, rec); err != nil {
			log.Error().Str("qid", rec.Qid).Err(err).Msg("Failed to map question card")
			continue
		}
		if card.Title == "" {
			card.Title = model.DefaultTitle
		}
		card.Updated = rec.LastUpdated()
		card.Correct = rec.Stats.Correct

		summaries = append(summaries, card)
	}

	// newest first; cards without a timestamp sink to the bottom
	sort.SliceStable(summaries, func(i, j int) bool {
		switch {
		case summaries[i].Updated == nil:
			return false
		case summaries[j].Updated == nil:
			return true
		default:
			return summaries[j].Updated.Before(*summaries[i].Updated)
		}
	})
	return summaries
}

// overlayHistory marks each card with the user's latest interaction.
func overlayHistory(cards []dto.QuestionSummary, history []model.AskedQuestion) {
	latest := make(map[string]model.AskedQuestion, len(history))
	for _, q := range model.LatestAnswerList(history) {
		latest[q.Qid] = q
	}

	for i := range cards {
		if q, ok := latest[cards[i].Qid]; ok {
			when := q.Status.When
			cards[i].Answered = q.Status.State.String()
			cards[i].When = &when
		}
	}
}
