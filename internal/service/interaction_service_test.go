package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizbite/quizbite/internal/model"
)

func gradedQuestion() *model.Question {
	return &model.Question{
		Qid:     "q1",
		Topic:   "rust",
		Correct: 1,
		Author:  "author-hash",
		Answers: []model.Answer{
			{A: "right", C: true},
			{A: "wrong"},
		},
	}
}

func TestRecordGrading(t *testing.T) {
	cases := []struct {
		name    string
		answers []int
		state   model.AnswerState
		counted string
	}{
		{"viewed", nil, model.StateAsked, ""},
		{"skipped", []int{}, model.StateSkipped, "q1:skipped"},
		{"correct", []int{0}, model.StateCorrect, "q1:correct"},
		{"incorrect", []int{1}, model.StateIncorrect, "q1:incorrect"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			questions := newFakeQuestionRepo()
			users := newFakeUserRepo()
			svc := NewInteractionService(questions, users)

			state := svc.Record(context.Background(), Interaction{
				Question:   gradedQuestion(),
				Answers:    tc.answers,
				Email:      "a@b.c",
				CallerHash: "caller-hash",
			})

			assert.Equal(t, tc.state, state)

			if tc.counted == "" {
				assert.Empty(t, questions.counted, "viewings are not counted")
			} else {
				assert.Equal(t, []string{tc.counted}, questions.counted)
			}

			history := users.appended["a@b.c"]
			require.Len(t, history, 1)
			assert.Equal(t, "q1", history[0].Qid)
			assert.Equal(t, tc.state, history[0].Status.State)
		})
	}
}

func TestRecordAnonymousCaller(t *testing.T) {
	questions := newFakeQuestionRepo()
	users := newFakeUserRepo()
	svc := NewInteractionService(questions, users)

	state := svc.Record(context.Background(), Interaction{
		Question: gradedQuestion(),
		Answers:  []int{0},
	})

	assert.Equal(t, model.StateCorrect, state)
	assert.Equal(t, []string{"q1:correct"}, questions.counted, "counters track anonymous answers too")
	assert.Empty(t, users.appended, "no identity, no history")
}

func TestRecordAuthorLeavesNoTrace(t *testing.T) {
	questions := newFakeQuestionRepo()
	users := newFakeUserRepo()
	svc := NewInteractionService(questions, users)

	svc.Record(context.Background(), Interaction{
		Question:   gradedQuestion(),
		Answers:    []int{0},
		Email:      "author@b.c",
		CallerHash: "author-hash",
	})

	assert.Empty(t, users.appended, "authors reviewing their own question leave no history")
	assert.Empty(t, questions.counted, "nor do they skew the counters")
}
