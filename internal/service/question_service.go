package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/repository"
)

// selectionPageSize is how many candidate records one store query
// returns around the random pivot.
const selectionPageSize = 10

// ErrBadInput marks failures caused by the submitted payload rather
// than by the store.
var ErrBadInput = errors.New("invalid input")

type QuestionService interface {
	// Random picks a published question from one of the given topics,
	// avoiding the excluded qids and the caller's own questions where
	// possible. Repeats are allowed rather than returning nothing.
	Random(ctx context.Context, topics []string, exclude []string, callerHash string) (*model.Question, error)
	// Exact returns one question by its full key.
	Exact(ctx context.Context, topic, qid string) (*model.Question, error)
	// Save validates and stores the question JSON under the caller's
	// authorship. The stage always resets to draft.
	Save(ctx context.Context, body []byte, callerHash string) (*model.Question, error)
	// ChangeStage publishes or unpublishes a question.
	ChangeStage(ctx context.Context, topic, qid string, stage model.PublishStage) error
}

type questionService struct {
	repo repository.QuestionRepository

	// selection source, guarded because gin handlers run concurrently
	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionService(repo repository.QuestionRepository, rng *rand.Rand) QuestionService {
	return &questionService{repo: repo, rng: rng}
}

// NewSelectionSource seeds the RNG driving topic order, pivot qids and
// scan direction during random selection.
func NewSelectionSource() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (s *questionService) Random(ctx context.Context, topics []string, exclude []string, callerHash string) (*model.Question, error) {
	topics = expandTopics(topics)
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no valid topics", repository.ErrNotFound)
	}

	excluded := make(map[string]bool, len(exclude))
	for _, qid := range exclude {
		excluded[qid] = true
	}

	s.mu.Lock()
	s.rng.Shuffle(len(topics), func(i, j int) {
		topics[i], topics[j] = topics[j], topics[i]
	})
	s.mu.Unlock()

	for _, topic := range topics {
		// two passes per topic: the first honours the exclusions, the
		// second accepts a repeat rather than coming back empty-handed
		for attempt := 0; attempt < 2; attempt++ {
			q, err := s.randomFromTopic(ctx, topic, excluded, callerHash, attempt == 0)
			if err != nil {
				return nil, err
			}
			if q != nil {
				return q, nil
			}
		}
		log.Info().Str("topic", topic).Msg("No candidate question in topic")
	}

	return nil, repository.ErrNotFound
}

// randomFromTopic makes one attempt at the topic: a random pivot qid,
// a random scan direction, and one direction flip if the first query
// comes back empty of candidates.
func (s *questionService) randomFromTopic(ctx context.Context, topic string, excluded map[string]bool, callerHash string, honourExclusions bool) (*model.Question, error) {
	s.mu.Lock()
	pivot := model.NewQid()
	cmp := ">="
	if s.rng.Intn(2) == 0 {
		cmp = "<"
	}
	s.mu.Unlock()

	for flip := 0; flip < 2; flip++ {
		records, err := s.repo.QueryByQid(ctx, topic, pivot, cmp, selectionPageSize)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.rng.Shuffle(len(records), func(i, j int) {
			records[i], records[j] = records[j], records[i]
		})
		s.mu.Unlock()

		for i := range records {
			rec := &records[i]
			if rec.Stage != string(model.StagePublished) {
				continue
			}
			if honourExclusions && (excluded[rec.Qid] || (callerHash != "" && rec.Author == callerHash)) {
				continue
			}

			q, err := model.ParseQuestion([]byte(rec.Details))
			if err != nil {
				// a chosen record that cannot be decoded is a data bug,
				// not a miss - surface it
				log.Error().Str("topic", topic).Str("qid", rec.Qid).Err(err).Msg("Chosen question is unreadable")
				return nil, repository.ErrCorruptRecord
			}
			q.Qid = rec.Qid
			q.Stats = &rec.Stats
			return q, nil
		}

		if cmp == "<" {
			cmp = ">="
		} else {
			cmp = "<"
		}
	}

	return nil, nil
}

func (s *questionService) Exact(ctx context.Context, topic, qid string) (*model.Question, error) {
	if !model.IsValidTopic(topic) || !model.ValidateQid(qid) {
		return nil, repository.ErrNotFound
	}

	rec, err := s.repo.Get(ctx, topic, qid)
	if err != nil {
		return nil, err
	}

	q, err := model.ParseQuestion([]byte(rec.Details))
	if err != nil {
		log.Error().Str("topic", topic).Str("qid", qid).Err(err).Msg("Stored question is unreadable")
		return nil, repository.ErrCorruptRecord
	}
	q.Qid = rec.Qid
	q.Author = rec.Author
	q.Stats = &rec.Stats
	if stage, err := model.ParsePublishStage(rec.Stage); err == nil {
		q.Stage = stage
	}
	return q, nil
}

func (s *questionService) Save(ctx context.Context, body []byte, callerHash string) (*model.Question, error) {
	q, err := model.ParseQuestion(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	now := time.Now().UTC()
	q.Author = callerHash
	q.Updated = &now
	// edits always go back through review
	q.Stage = model.StageDraft

	details, err := q.Encode()
	if err != nil {
		return nil, err
	}

	rec := repository.QuestionRecord{
		Topic:   q.Topic,
		Qid:     q.Qid,
		Details: details,
		Title:   q.Title,
		Updated: now.Format(time.RFC3339),
		Stage:   string(q.Stage),
		Author:  callerHash,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, err
	}

	log.Info().Str("topic", q.Topic).Str("qid", q.Qid).Msg("Question saved")
	return q, nil
}

func (s *questionService) ChangeStage(ctx context.Context, topic, qid string, stage model.PublishStage) error {
	if !model.IsValidTopic(topic) || !model.ValidateQid(qid) {
		return repository.ErrNotFound
	}

	q, err := s.Exact(ctx, topic, qid)
	if err != nil {
		return err
	}

	// only complete questions go live
	if stage == model.StagePublished && !q.IsComplete() {
		return fmt.Errorf("%w: question is incomplete", ErrBadInput)
	}

	// the details blob carries the stage too and must stay in agreement
	// with the store attribute
	q.Stage = stage
	q.Stats = nil
	details, err := q.Encode()
	if err != nil {
		return err
	}

	return s.repo.UpdateStage(ctx, topic, qid, stage, details)
}

// expandTopics validates the requested topics and expands the catch-all
// into the full list.
func expandTopics(topics []string) []string {
	for _, t := range topics {
		if t == model.AnyTopic {
			return append([]string{}, model.Topics...)
		}
	}
	return model.FilterValidTopics(topics)
}
