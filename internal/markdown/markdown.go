// Package markdown renders CommonMark to sanitised HTML and extracts
// the links used in the source for refresher reading lists.
package markdown

import (
	"sort"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// Validated is the result of rendering one markdown snippet.
type Validated struct {
	// HTML is the rendered output with raw HTML and images skipped.
	HTML string
	// Links are the destinations of all links in the source, in
	// document order.
	Links []string
	// Images are the sources of images dropped by the renderer.
	Images []string
	// Ignored counts the raw HTML blocks and spans dropped by the
	// renderer.
	Ignored int
}

// ToHTML renders markdown to HTML. Raw HTML and images in the source
// are dropped, not escaped. When collectLinks is set, link destinations
// are extracted into Validated.Links.
func ToHTML(md string, collectLinks bool) Validated {
	parser := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	root := parser.Parse([]byte(md))

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.SkipImages,
	})

	out := Validated{}
	var buf strings.Builder
	root.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering {
			switch node.Type {
			case blackfriday.Link:
				if collectLinks {
					out.Links = append(out.Links, string(node.LinkData.Destination))
				}
			case blackfriday.Image:
				out.Images = append(out.Images, string(node.LinkData.Destination))
			case blackfriday.HTMLBlock, blackfriday.HTMLSpan:
				out.Ignored++
			}
		}
		return renderer.RenderNode(&buf, node, entering)
	})

	out.HTML = strings.TrimSpace(buf.String())
	return out
}

// SortLinks merges the question, correct-answer and incorrect-answer
// link groups into one ordered, deduplicated list. Fragments are
// stripped so links differing only in the anchor collapse into one.
// Question links come first, then links from correct answers, then
// links from incorrect ones.
func SortLinks(question, correct, incorrect []string) []string {
	merged := make([]string, 0, len(question)+len(correct)+len(incorrect))
	for _, group := range [][]string{question, correct, incorrect} {
		trimmed := make([]string, 0, len(group))
		for _, link := range group {
			if idx := strings.IndexByte(link, '#'); idx >= 0 {
				link = link[:idx]
			}
			if link != "" {
				trimmed = append(trimmed, link)
			}
		}
		sort.Strings(trimmed)
		merged = append(merged, trimmed...)
	}

	// drop adjacent duplicates; cross-group repeats of the same link
	// are kept apart only if another link separates them
	deduped := merged[:0]
	for _, link := range merged {
		if len(deduped) == 0 || deduped[len(deduped)-1] != link {
			deduped = append(deduped, link)
		}
	}
	return deduped
}
