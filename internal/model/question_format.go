package model

import (
	"github.com/quizbite/quizbite/internal/markdown"
)

// QuestionFormat selects the representation of a question in a response.
type QuestionFormat int

const (
	// FormatMarkdownFull returns the raw question in Markdown for editing.
	FormatMarkdownFull QuestionFormat = iota
	// FormatHTMLFull returns the rendered question with explanations,
	// correct flags, refresher links and the learner's selections.
	FormatHTMLFull
	// FormatHTMLShort returns the rendered question for answering,
	// with explanations and correct flags removed.
	FormatHTMLShort
)

// Format returns a copy of the question in the requested representation.
// learnerAnswers is only meaningful for FormatHTMLFull and may be nil.
func (q *Question) Format(format QuestionFormat, learnerAnswers []int) *Question {
	switch format {
	case FormatHTMLFull:
		return q.intoHTML(learnerAnswers, learnerAnswers != nil)
	case FormatHTMLShort:
		return q.intoHTML(nil, false).withoutExplanations()
	default:
		return q
	}
}

// intoHTML converts the markdown members to HTML and extracts the
// refresher links in one pass. Supports CommonMark only.
func (q *Question) intoHTML(learnerAnswers []int, withSelections bool) *Question {
	// collectors for links extracted from the markdown, by logical group
	var qLinks, cLinks, iLinks []string

	questionHTML := func() string {
		v := markdown.ToHTML(q.Question, true)
		qLinks = append(qLinks, v.Links...)
		return v.HTML
	}()

	answers := make([]Answer, 0, len(q.Answers))
	for _, answer := range q.Answers {
		links := &iLinks
		if answer.C {
			links = &cLinks
		}

		a := markdown.ToHTML(answer.A, true)
		*links = append(*links, a.Links...)

		e := ""
		if answer.E != "" {
			v := markdown.ToHTML(answer.E, true)
			*links = append(*links, v.Links...)
			e = v.HTML
		}

		answers = append(answers, Answer{A: a.HTML, E: e, C: answer.C})
	}

	// move the selected answers to the top, preserving the original
	// order within the two groups
	if withSelections {
		selected := make([]Answer, 0, len(answers))
		unselected := make([]Answer, 0, len(answers))
		for idx, answer := range answers {
			if containsInt(learnerAnswers, idx) {
				answer.Sel = true
				selected = append(selected, answer)
			} else {
				unselected = append(unselected, answer)
			}
		}
		answers = append(selected, unselected...)
	}

	out := *q
	out.Question = questionHTML
	out.Answers = answers
	out.RefresherLinks = markdown.SortLinks(qLinks, cLinks, iLinks)
	return &out
}

// withoutExplanations removes the explanations and correct flags
// so the question can be displayed for answering.
func (q *Question) withoutExplanations() *Question {
	answers := make([]Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, Answer{A: a.A})
	}

	out := *q
	out.Answers = answers
	return &out
}
