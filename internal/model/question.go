package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
)

const (
	// MaxQuestionLen is the maximum size of a serialized question in bytes.
	// ParseQuestion returns an error if the size is exceeded.
	MaxQuestionLen = 12_000

	// MaxTitleLen is the maximum size of a title in bytes. The excess is truncated.
	MaxTitleLen = 120

	// DefaultTitle is used when no title is present and one cannot be
	// derived from the question text.
	DefaultTitle = "Untitled"
)

// PublishStage controls visibility of the question.
//   - Draft - visible to the author and mods
//   - Published - visible to everyone
type PublishStage string

const (
	StageDraft     PublishStage = "draft"
	StagePublished PublishStage = "published"
)

// ParsePublishStage converts the stored string form into a PublishStage.
func ParsePublishStage(s string) (PublishStage, error) {
	switch s {
	case "draft":
		return StageDraft, nil
	case "published":
		return StagePublished, nil
	default:
		return "", fmt.Errorf("invalid publish stage: %s", s)
	}
}

// Answer is one option the learner can select.
type Answer struct {
	// The short answer in Markdown format that appears as an option
	// when the question is asked.
	A string `json:"a"`
	// A detailed explanation why this answer is correct or incorrect
	// in Markdown format.
	E string `json:"e,omitempty"`
	// True if this answer is correct. Only present in JSON if true.
	C bool `json:"c,omitempty"`
	// Learner's choice. Only present in JSON if the learner selected this answer.
	Sel bool `json:"sel,omitempty"`
}

// Stats holds the interaction counters for a question.
// The counters live as separate top-level store attributes and are
// set on reads; they are never serialized into the details blob.
type Stats struct {
	Correct   uint32 `json:"correct"`
	Incorrect uint32 `json:"incorrect"`
	Skipped   uint32 `json:"skipped"`
}

// ContributorProfile holds details of the person or business who
// contributed the question.
type ContributorProfile struct {
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	ImgURL string `json:"imgUrl,omitempty"`
	About  string `json:"about,omitempty"`
}

// String formats the profile as `name / url / img_url / about`,
// skipping empty values after trimming white space.
func (c ContributorProfile) String() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{c.Name, c.URL, c.ImgURL, c.About} {
		if v := strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}

// Question is a quiz item with multiple answers.
type Question struct {
	// Base-58 encoded random 128-bit ID.
	Qid string `json:"qid"`
	// The single topic the question belongs to.
	Topic string `json:"topic"`
	// The question in Markdown format.
	Question string `json:"question"`
	// The list of answers in Markdown format. The order must be preserved
	// to match the correct answer indexes.
	Answers []Answer `json:"answers"`
	// How many answers are correct. Recomputed from Answers on ingest,
	// never trusted from input. Tells the front-end how many answers to
	// expect without revealing which ones are correct.
	Correct int `json:"correct"`
	// A hash of the author's email. Set server side; user input is ignored.
	Author string `json:"author,omitempty"`
	// When the contents were last modified.
	Updated *time.Time `json:"updated,omitempty"`
	// A one line summary for the question list.
	Title string `json:"title"`
	// Visibility of the question. The store attribute is the source of
	// truth and is copied into the struct on reads.
	Stage PublishStage `json:"stage,omitempty"`
	// Interaction counters, set on store reads only.
	Stats *Stats `json:"stats,omitempty"`
	// Optional contributor attribution.
	Contributor *ContributorProfile `json:"contributor,omitempty"`
	// Links extracted from the markdown of the question, answers and
	// explanations. Built on the fly, never persisted.
	RefresherLinks []string `json:"refresherLinks,omitempty"`
}

// NewQid generates a random question ID as a base58-encoded random UUID,
// e.g. 1D759ksnnlogULbRPng3noG, 2gS2XiBnscLX5dQFDP3kiJo.
func NewQid() string {
	id := uuid.New()
	return base58.Encode(id[:])
}

// ValidateQid reports whether the value decodes to a 16-byte ID.
func ValidateQid(qid string) bool {
	v, err := base58.Decode(qid)
	return err == nil && len(v) == 16
}

// ParseQuestion converts a JSON byte string to a Question with validation:
//   - qid must decode to 16 bytes or a new random one is generated
//   - topic must be in the supported list
//   - correct is recalculated from the answers
//   - the title is derived from the question text when blank
//   - stats are cleared; they only come from store reads
func ParseQuestion(data []byte) (*Question, error) {
	if len(data) > MaxQuestionLen {
		log.Error().Int("size", len(data)).Msg("Question is too large")
		return nil, fmt.Errorf("question is too large, %d bytes allowed", MaxQuestionLen)
	}

	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		log.Error().Err(err).Msg("Cannot deserialize question")
		return nil, errors.New("cannot deserialize question")
	}

	correct := 0
	for _, a := range q.Answers {
		if a.C {
			correct++
		}
	}
	q.Correct = correct

	// qid is missing for new questions; regenerate anything invalid
	if !ValidateQid(q.Qid) {
		q.Qid = NewQid()
	}

	q.Topic = strings.ToLower(strings.TrimSpace(q.Topic))
	if !IsValidTopic(q.Topic) {
		log.Error().Str("topic", q.Topic).Msg("Invalid topic")
		return nil, errors.New("invalid topic")
	}

	// the title is needed in the front-end to display the list of questions:
	// trim and truncate if present, otherwise derive one from the question text
	title := strings.TrimSpace(q.Title)
	if title == "" {
		title = titleFromQuestion(q.Question)
	}
	q.Title = truncateBytes(title, MaxTitleLen)

	q.Stats = nil

	return &q, nil
}

func titleFromQuestion(question string) string {
	if len(question) <= 10 {
		return DefaultTitle
	}
	v := strings.TrimSpace(question)
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	v = strings.ReplaceAll(v, "  ", " ")
	return v
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Encode serializes the question to its JSON string form for storage.
func (q *Question) Encode() (string, error) {
	v, err := json.Marshal(q)
	if err != nil {
		log.Error().Err(err).Str("topic", q.Topic).Str("qid", q.Qid).Msg("Cannot serialize question")
		return "", errors.New("cannot serialize question")
	}
	return string(v), nil
}

// IsCorrect reports whether the list of selected answer indexes matches the
// correct answers exactly: the count must equal Correct and every
// correct-flagged index must be selected.
func (q *Question) IsCorrect(selected []int) bool {
	if q.Correct != len(selected) {
		return false
	}

	for idx, a := range q.Answers {
		if a.C && !containsInt(selected, idx) {
			return false
		}
	}

	// the number of selections matches the number of correct answers
	// and all correct answers are selected, so it must be correct
	return true
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// IsComplete reports whether the question has all the required parts
// to be worth reviewing.
func (q *Question) IsComplete() bool {
	if q.Topic == "" || len(q.Question) <= 10 || len(q.Answers) < 2 || q.Correct == 0 || len(q.Title) <= 10 {
		return false
	}
	for _, a := range q.Answers {
		if a.A == "" || len(a.E) <= 10 {
			return false
		}
	}
	return true
}
