package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerStatusRoundTrip(t *testing.T) {
	when := time.Date(2024, 10, 31, 8, 39, 17, 0, time.UTC)
	status := AnswerStatus{State: StateCorrect, When: when}

	token := status.Encode()
	assert.Equal(t, "2024-10-31T08:39:17Zc", token)
	assert.Len(t, token, 21)

	parsed, err := ParseAnswerStatus(token)
	require.NoError(t, err)
	assert.Equal(t, status, parsed)
}

func TestAnswerStatusDropsSubsecondPrecision(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	parsed, err := ParseAnswerStatus(AnswerStatus{State: StateSkipped, When: when}.Encode())
	require.NoError(t, err)
	assert.Equal(t, when.Truncate(time.Second), parsed.When)
}

func TestParseAnswerStatusRejects(t *testing.T) {
	for _, bad := range []string{
		"",
		"2024-10-31T08:39:17Z",   // no state suffix
		"2024-10-31T08:39:17Zx",  // unknown state
		"2024-10-31T08:39:172Zc", // too long
		"not-a-timestamp-hereZc",
	} {
		_, err := ParseAnswerStatus(bad)
		assert.Error(t, err, "value %q", bad)
	}
}

func TestAnswerStatusJSON(t *testing.T) {
	status := AnswerStatus{State: StateIncorrect, When: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	data, err := json.Marshal(status)
	require.NoError(t, err)
	assert.JSONEq(t, `{"incorrect": "2024-05-01T12:00:00Z"}`, string(data))

	var back AnswerStatus
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, status, back)
}

func TestAskedQuestionRoundTrip(t *testing.T) {
	qid := NewQid()
	asked := AskedQuestion{
		Topic:  "general",
		Qid:    qid,
		Status: AnswerStatus{State: StateAsked, When: time.Date(2024, 10, 31, 8, 39, 17, 0, time.UTC)},
	}

	token := asked.Encode()
	assert.Equal(t, "general/"+qid+"/2024-10-31T08:39:17Za", token)

	parsed, err := ParseAskedQuestion(token)
	require.NoError(t, err)
	assert.Equal(t, asked, parsed)

	_, err = ParseAskedQuestion("general/" + qid)
	assert.Error(t, err, "missing status part")
	_, err = ParseAskedQuestion("a/b/c/d")
	assert.Error(t, err, "too many parts")
}

func at(day int) time.Time {
	return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
}

func TestLatestAnswerListKeepsLatestPerQuestion(t *testing.T) {
	history := []AskedQuestion{
		{Topic: "rust", Qid: "q1", Status: AnswerStatus{State: StateAsked, When: at(1)}},
		{Topic: "rust", Qid: "q1", Status: AnswerStatus{State: StateIncorrect, When: at(2)}},
		{Topic: "rust", Qid: "q1", Status: AnswerStatus{State: StateAsked, When: at(3)}},
		{Topic: "rust", Qid: "q1", Status: AnswerStatus{State: StateCorrect, When: at(5)}},
		{Topic: "css", Qid: "q2", Status: AnswerStatus{State: StateSkipped, When: at(4)}},
	}

	latest := LatestAnswerList(history)
	require.Len(t, latest, 2)

	assert.Equal(t, "q1", latest[0].Qid, "sorted most recent first")
	assert.Equal(t, StateCorrect, latest[0].Status.State)
	assert.Equal(t, at(5), latest[0].Status.When)

	assert.Equal(t, "q2", latest[1].Qid)
	assert.Equal(t, StateSkipped, latest[1].Status.State)
}

func TestLatestAnswerListAnswerBeatsLaterViewing(t *testing.T) {
	// a mere viewing after a real answer must not hide the answer
	history := []AskedQuestion{
		{Topic: "aws", Qid: "q1", Status: AnswerStatus{State: StateCorrect, When: at(1)}},
		{Topic: "aws", Qid: "q1", Status: AnswerStatus{State: StateAsked, When: at(9)}},
	}

	latest := LatestAnswerList(history)
	require.Len(t, latest, 1)
	assert.Equal(t, StateCorrect, latest[0].Status.State)
	assert.Equal(t, at(1), latest[0].Status.When)
}

func TestLatestAnswerListViewingsOnly(t *testing.T) {
	history := []AskedQuestion{
		{Topic: "js-ts", Qid: "q1", Status: AnswerStatus{State: StateAsked, When: at(1)}},
		{Topic: "js-ts", Qid: "q1", Status: AnswerStatus{State: StateAsked, When: at(2)}},
		{Topic: "js-ts", Qid: "q1", Status: AnswerStatus{State: StateSkipped, When: at(4)}},
		{Topic: "js-ts", Qid: "q1", Status: AnswerStatus{State: StateAsked, When: at(5)}},
	}

	latest := LatestAnswerList(history)
	require.Len(t, latest, 1)
	assert.Equal(t, StateAsked, latest[0].Status.State)
	assert.Equal(t, at(5), latest[0].Status.When)
}

func TestLatestAnswerListEmpty(t *testing.T) {
	assert.Empty(t, LatestAnswerList(nil))
}
