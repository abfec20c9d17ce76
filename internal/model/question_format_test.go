package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formattedQuestion() *Question {
	return &Question{
		Qid:      "q1",
		Topic:    "rust",
		Question: "What does [the book](https://doc.rust-lang.org/book/#intro) say about *ownership*?",
		Correct:  1,
		Answers: []Answer{
			{A: "Moves by default", E: "See [moves](https://doc.rust-lang.org/book/ch04)", C: true},
			{A: "Copies by default", E: "Only `Copy` types, see [traits](https://doc.rust-lang.org/std/marker)"},
		},
	}
}

func TestFormatMarkdownIsUntouched(t *testing.T) {
	q := formattedQuestion()
	out := q.Format(FormatMarkdownFull, nil)
	assert.Equal(t, q.Question, out.Question)
	assert.Empty(t, out.RefresherLinks)
}

func TestFormatHTMLFull(t *testing.T) {
	out := formattedQuestion().Format(FormatHTMLFull, []int{1})

	assert.Contains(t, out.Question, "<em>ownership</em>")
	assert.Contains(t, out.Question, `href="https://doc.rust-lang.org/book/#intro"`)

	// the selected answer moves to the front and is marked
	require.Len(t, out.Answers, 2)
	assert.True(t, out.Answers[0].Sel)
	assert.Contains(t, out.Answers[0].A, "Copies by default")
	assert.False(t, out.Answers[1].Sel)
	assert.True(t, out.Answers[1].C)

	// question links first, then correct-answer links, then the rest,
	// fragments stripped
	assert.Equal(t, []string{
		"https://doc.rust-lang.org/book/",
		"https://doc.rust-lang.org/book/ch04",
		"https://doc.rust-lang.org/std/marker",
	}, out.RefresherLinks)
}

func TestFormatHTMLShortHidesTheVerdict(t *testing.T) {
	out := formattedQuestion().Format(FormatHTMLShort, nil)

	require.Len(t, out.Answers, 2)
	for _, a := range out.Answers {
		assert.Empty(t, a.E, "no explanations before answering")
		assert.False(t, a.C, "no correct flags before answering")
		assert.False(t, a.Sel)
	}
	assert.Contains(t, out.Answers[0].A, "Moves by default", "original order is preserved")
}

func TestFormatDoesNotMutateTheOriginal(t *testing.T) {
	q := formattedQuestion()
	_ = q.Format(FormatHTMLFull, []int{0})

	assert.Contains(t, q.Question, "[the book]", "the source question keeps its markdown")
	assert.Equal(t, "Moves by default", q.Answers[0].A)
}
