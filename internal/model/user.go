package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// AnswerState is the outcome of one user interaction with a question.
type AnswerState int

const (
	// StateAsked - the question was emailed or shown to the user.
	StateAsked AnswerState = iota
	// StateCorrect - all options were selected correctly.
	StateCorrect
	// StateIncorrect - some options were selected incorrectly.
	StateIncorrect
	// StateSkipped - the question was skipped.
	StateSkipped
)

// letter returns the single-character store suffix for the state.
func (s AnswerState) letter() byte {
	switch s {
	case StateAsked:
		return 'a'
	case StateCorrect:
		return 'c'
	case StateIncorrect:
		return 'i'
	default:
		return 's'
	}
}

func (s AnswerState) String() string {
	switch s {
	case StateAsked:
		return "asked"
	case StateCorrect:
		return "correct"
	case StateIncorrect:
		return "incorrect"
	default:
		return "skipped"
	}
}

// Determinate reports whether the state is a definitive answer
// rather than a mere viewing.
func (s AnswerState) Determinate() bool {
	return s == StateCorrect || s == StateIncorrect
}

// statusTimeFormat is the timestamp part of the stored token.
// Sub-second precision is not preserved.
const statusTimeFormat = "2006-01-02T15:04:05Z"

// AnswerStatus is how the question was answered and when.
// Store value example: 2024-01-01T00:00:00Zc - the trailing character is the
// state. Putting the state at the end keeps tokens sortable by date.
type AnswerStatus struct {
	State AnswerState
	When  time.Time
}

// Encode returns the store token form, e.g. 2024-01-01T00:00:00Za.
func (s AnswerStatus) Encode() string {
	return s.When.UTC().Format(statusTimeFormat) + string(s.State.letter())
}

// ParseAnswerStatus decodes a store token into an AnswerStatus.
func ParseAnswerStatus(s string) (AnswerStatus, error) {
	// possible values: 2024-01-01T00:00:00Zc, 2024-01-01T00:00:00Zi, ...
	if len(s) != 21 {
		log.Error().Str("value", s).Msg("Invalid answer status length")
		return AnswerStatus{}, fmt.Errorf("invalid answer status (len): %s", s)
	}

	ts, err := time.Parse(statusTimeFormat, s[:len(s)-1])
	if err != nil {
		log.Error().Str("value", s).Err(err).Msg("Invalid answer status timestamp")
		return AnswerStatus{}, fmt.Errorf("invalid answer status: %s", s)
	}

	var state AnswerState
	switch s[len(s)-1] {
	case 'a':
		state = StateAsked
	case 'c':
		state = StateCorrect
	case 'i':
		state = StateIncorrect
	case 's':
		state = StateSkipped
	default:
		log.Error().Str("value", s).Msg("Invalid answer status suffix")
		return AnswerStatus{}, fmt.Errorf("invalid answer status: %s", s)
	}

	return AnswerStatus{State: state, When: ts.UTC()}, nil
}

// MarshalJSON emits the status as {"correct":"2024-01-01T00:00:00Z"},
// keyed by the state name.
func (s AnswerStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		s.State.String(): s.When.UTC().Format(statusTimeFormat),
	})
}

// UnmarshalJSON accepts the same single-key object form.
func (s *AnswerStatus) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, v := range m {
		ts, err := time.Parse(statusTimeFormat, v)
		if err != nil {
			return err
		}
		switch k {
		case "asked":
			s.State = StateAsked
		case "correct":
			s.State = StateCorrect
		case "incorrect":
			s.State = StateIncorrect
		case "skipped":
			s.State = StateSkipped
		default:
			return fmt.Errorf("invalid answer state: %s", k)
		}
		s.When = ts.UTC()
		return nil
	}
	return errors.New("empty answer status")
}

// AskedQuestion is one user interaction with one question.
type AskedQuestion struct {
	// Question's topic, PK of the questions table.
	Topic string `json:"topic"`
	// Question's ID, SK of the questions table.
	Qid string `json:"qid"`
	// When the question was shown or answered, with the result.
	Status AnswerStatus `json:"status"`
}

// Encode returns the store token form, e.g.
// general/3RuWxwkgBgpWk6ZUARaZx6/2024-10-31T08:39:17Zc.
func (q AskedQuestion) Encode() string {
	return q.Topic + "/" + q.Qid + "/" + q.Status.Encode()
}

// ParseAskedQuestion decodes a store token into an AskedQuestion.
func ParseAskedQuestion(s string) (AskedQuestion, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		log.Error().Str("value", s).Msg("Expected 3 parts in asked-question token")
		return AskedQuestion{}, errors.New("invalid asked question (part count)")
	}

	status, err := ParseAnswerStatus(parts[2])
	if err != nil {
		return AskedQuestion{}, err
	}

	return AskedQuestion{Topic: parts[0], Qid: parts[1], Status: status}, nil
}

// LatestAnswerList returns a unique list of questions with the latest
// status per question. A determinate answer always wins over a viewing,
// regardless of which is more recent; within the same tier the most
// recent timestamp wins. The result is sorted most recent first.
func LatestAnswerList(questions []AskedQuestion) []AskedQuestion {
	viewed := make(map[string]AskedQuestion, len(questions))
	answered := make(map[string]AskedQuestion, len(questions))

	// the store should already return these in insertion order,
	// but that is not enforced, so sort again just in case
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Status.When.Before(questions[j].Status.When)
	})

	// walk latest-first so the first entry seen per tier wins
	for i := len(questions) - 1; i >= 0; i-- {
		q := questions[i]
		if q.Status.State.Determinate() {
			if _, ok := answered[q.Qid]; !ok {
				answered[q.Qid] = q
			}
		} else {
			if _, ok := viewed[q.Qid]; !ok {
				viewed[q.Qid] = q
			}
		}
	}

	// answered entries replace viewed ones
	for k, v := range answered {
		viewed[k] = v
	}

	unique := make([]AskedQuestion, 0, len(viewed))
	for _, v := range viewed {
		unique = append(unique, v)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[j].Status.When.Before(unique[i].Status.When)
	})

	return unique
}

// User is the full subscription and history record.
type User struct {
	Email string `json:"email"`
	// The list of subscribed topics. Empty means unsubscribed from all.
	Topics []string `json:"topics"`
	// The list of asked questions.
	Questions []AskedQuestion `json:"questions"`
	// A unique unsubscribe key, regenerated on every subscription update.
	Unsubscribe string `json:"unsubscribe"`
	// When the subscription was last updated.
	Updated *time.Time `json:"updated,omitempty"`
}
