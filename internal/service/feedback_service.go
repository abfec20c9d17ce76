package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/dto"
	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/repository"
)

type FeedbackService interface {
	// Send emails the feedback about one question to the maintainers.
	// The question must exist; its author is never revealed.
	Send(ctx context.Context, req dto.FeedbackRequest, submitterEmail, sourceIP string) error
}

type feedbackService struct {
	ses       *sesv2.Client
	questions repository.QuestionRepository
	from      string
	to        string
	// base URL for links back to a question page
	questionURL string
}

func NewFeedbackService(ses *sesv2.Client, questions repository.QuestionRepository, cfg *config.Config) FeedbackService {
	return &feedbackService{
		ses:         ses,
		questions:   questions,
		from:        cfg.Email.From,
		to:          cfg.Email.FeedbackTo,
		questionURL: cfg.Share.QuestionURL,
	}
}

func (s *feedbackService) Send(ctx context.Context, req dto.FeedbackRequest, submitterEmail, sourceIP string) error {
	if !model.IsValidTopic(req.Topic) || !model.ValidateQid(req.Qid) {
		return repository.ErrNotFound
	}
	// make sure the feedback is about a real question before emailing
	if _, err := s.questions.Get(ctx, req.Topic, req.Qid); err != nil {
		return err
	}

	subject := fmt.Sprintf("Feedback for %s/%s", model.TopicName(req.Topic), req.Qid)

	var body strings.Builder
	fmt.Fprintf(&body, "Question: %s/%s/%s\n\n", s.questionURL, req.Topic, req.Qid)
	fmt.Fprintf(&body, "%s\n\n", strings.TrimSpace(req.Feedback))
	if req.Email != "" {
		fmt.Fprintf(&body, "Contact: %s\n", req.Email)
	}
	if submitterEmail != "" {
		fmt.Fprintf(&body, "Signed in as: %s\n", submitterEmail)
	}
	if sourceIP != "" {
		fmt.Fprintf(&body, "Source IP: %s\n", sourceIP)
	}

	_, err := s.ses.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{s.to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body.String())},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending feedback email: %w", err)
	}

	log.Info().Str("topic", req.Topic).Str("qid", req.Qid).Msg("Feedback sent")
	return nil
}
