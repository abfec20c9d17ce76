package dto

import "github.com/quizbite/quizbite/internal/model"

// SubscriptionRequest updates the caller's topic subscriptions.
// An empty list unsubscribes from everything.
type SubscriptionRequest struct {
	Topics []string `json:"topics"`
}

// StageChangeRequest publishes or unpublishes a question.
type StageChangeRequest struct {
	Topic string `json:"topic" binding:"required"`
	Qid   string `json:"qid" binding:"required"`
	Stage string `json:"stage" binding:"required,oneof=draft published"`
}

// FeedbackRequest is a free-text comment about one question.
type FeedbackRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Qid      string `json:"qid" binding:"required"`
	Feedback string `json:"feedback" binding:"required,min=10,max=2000"`
	// Optional contact address typed into the form, not the token email.
	Email string `json:"email"`
}

// DonationRequest starts a checkout session for question contributions.
type DonationRequest struct {
	ContactEmail string                    `json:"contactEmail" binding:"required,email"`
	Qty          int64                     `json:"qty" binding:"required,min=1,max=10"`
	CancelURL    string                    `json:"cancelUrl" binding:"required,url"`
	SuccessURL   string                    `json:"successUrl" binding:"required,url"`
	Contributor  *model.ContributorProfile `json:"contributor"`
	Topics       []string                  `json:"topics"`
}
