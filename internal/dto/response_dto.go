package dto

import (
	"time"

	"github.com/quizbite/quizbite/internal/model"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// QuestionSummary is a list card: no question text, no answers.
type QuestionSummary struct {
	Qid     string     `json:"qid"`
	Topic   string     `json:"topic"`
	Title   string     `json:"title"`
	Updated *time.Time `json:"updated,omitempty"`
	Stage   string     `json:"stage,omitempty"`
	Correct uint32     `json:"correct"`
	// The caller's latest interaction with this question, when known.
	// One of asked, correct, incorrect, skipped.
	Answered string     `json:"answered,omitempty"`
	When     *time.Time `json:"when,omitempty"`
}

// UserResponse is the subscription view of the caller, with the
// history already reduced to the latest status per question.
type UserResponse struct {
	Email       string                `json:"email"`
	Topics      []string              `json:"topics"`
	Questions   []model.AskedQuestion `json:"questions"`
	Unsubscribe string                `json:"unsubscribe,omitempty"`
	Updated     *time.Time            `json:"updated,omitempty"`
}

// DonationResponse carries the checkout redirect target.
type DonationResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
