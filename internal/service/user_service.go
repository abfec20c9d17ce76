package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/repository"
)

type UserService interface {
	// Get returns the user's subscription with the history reduced to
	// the latest status per question.
	Get(ctx context.Context, email string) (*model.User, error)
	// UpdateSubscription replaces the topic list. Unknown topics are
	// dropped; an empty result unsubscribes from everything. The
	// unsubscribe key is regenerated on every update so stale emailed
	// links stop working.
	UpdateSubscription(ctx context.Context, email string, topics []string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Get(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// callers without a record are simply unsubscribed
			return &model.User{Email: email, Topics: []string{}}, nil
		}
		return nil, err
	}
	user.Questions = model.LatestAnswerList(user.Questions)
	return user, nil
}

func (s *userService) UpdateSubscription(ctx context.Context, email string, topics []string) (*model.User, error) {
	topics = model.FilterValidTopics(topics)

	user, err := s.repo.UpdateSubscription(ctx, email, topics, newUnsubscribeKey())
	if err != nil {
		return nil, err
	}

	log.Info().Int("topics", len(topics)).Msg("Subscription updated")
	user.Questions = model.LatestAnswerList(user.Questions)
	return user, nil
}

// newUnsubscribeKey returns a random key in a form safe for URLs and
// case-insensitive email clients.
func newUnsubscribeKey() string {
	id := uuid.New()
	return strings.ToLower(base58.Encode(id[:]))
}
