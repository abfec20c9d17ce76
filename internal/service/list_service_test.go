package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/repository"
)

func TestListTopicSortsNewestFirst(t *testing.T) {
	older := publishedRecord(t, "rust", "a1")
	older.Updated = "2024-01-01T00:00:00Z"
	newer := publishedRecord(t, "rust", "a2")
	newer.Updated = "2024-06-01T00:00:00Z"
	undated := publishedRecord(t, "rust", "a3")
	undated.Updated = ""
	draft := publishedRecord(t, "rust", "a4")
	draft.Stage = string(model.StageDraft)

	repo := newFakeQuestionRepo(older, newer, undated, draft)
	cards, err := NewListService(repo).Topic(context.Background(), "rust", nil)
	require.NoError(t, err)

	require.Len(t, cards, 3, "drafts are not listed")
	assert.Equal(t, newer.Qid, cards[0].Qid)
	assert.Equal(t, older.Qid, cards[1].Qid)
	assert.Equal(t, undated.Qid, cards[2].Qid, "undated rows sink to the bottom")
	assert.Empty(t, cards[0].Answered)
}

func TestListTopicOverlaysHistory(t *testing.T) {
	answered := publishedRecord(t, "css", "a1")
	unseen := publishedRecord(t, "css", "a2")
	repo := newFakeQuestionRepo(answered, unseen)

	when := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	user := &model.User{
		Email: "a@b.c",
		Questions: []model.AskedQuestion{
			{Topic: "css", Qid: answered.Qid, Status: model.AnswerStatus{State: model.StateAsked, When: when.Add(-time.Hour)}},
			{Topic: "css", Qid: answered.Qid, Status: model.AnswerStatus{State: model.StateIncorrect, When: when}},
		},
	}

	cards, err := NewListService(repo).Topic(context.Background(), "css", user)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	byQid := map[string]string{}
	for _, card := range cards {
		byQid[card.Qid] = card.Answered
	}
	assert.Equal(t, "incorrect", byQid[answered.Qid])
	assert.Empty(t, byQid[unseen.Qid])
}

func TestListTopicUnknownTopic(t *testing.T) {
	_, err := NewListService(newFakeQuestionRepo()).Topic(context.Background(), "not-a-topic", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListMineIncludesDrafts(t *testing.T) {
	mine := publishedRecord(t, "rust", "caller-hash")
	mineDraft := publishedRecord(t, "rust", "caller-hash")
	mineDraft.Stage = string(model.StageDraft)
	other := publishedRecord(t, "rust", "someone-else")

	repo := newFakeQuestionRepo(mine, mineDraft, other)
	cards, err := NewListService(repo).Mine(context.Background(), "caller-hash")
	require.NoError(t, err)

	require.Len(t, cards, 2)
	for _, card := range cards {
		assert.NotEqual(t, other.Qid, card.Qid)
	}
}

func TestListTopicFallsBackToDefaultTitle(t *testing.T) {
	rec := publishedRecord(t, "general", "a1")
	rec.Title = ""

	cards, err := NewListService(newFakeQuestionRepo(rec)).Topic(context.Background(), "general", nil)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, model.DefaultTitle, cards[0].Title)
}
