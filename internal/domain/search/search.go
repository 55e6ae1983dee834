package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is one organic hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Response is the normalized answer of a text search backend.
type Response struct {
	Query  string
	Answer string
	Result []Result
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) (*Response, error)
}

// Fragment renders a search response as a reply fragment. It returns an
// empty string when there is nothing worth showing.
func Fragment(resp *Response, limit int) string {
	if resp == nil {
		return ""
	}
	if limit <= 0 {
		limit = 5
	}

	var b strings.Builder
	if answer := strings.TrimSpace(resp.Answer); answer != "" {
		b.WriteString(answer)
	}

	shown := 0
	for _, r := range resp.Result {
		if shown == limit {
			break
		}
		title := strings.TrimSpace(r.Title)
		if title == "" || strings.TrimSpace(r.Link) == "" {
			continue
		}
		if shown == 0 {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Here's what I found for \"%s\":", strings.TrimSpace(resp.Query))
		}
		fmt.Fprintf(&b, "\n- [%s](%s)", title, strings.TrimSpace(r.Link))
		if snippet := strings.TrimSpace(r.Snippet); snippet != "" {
			b.WriteString(": " + snippet)
		}
		shown++
	}
	return b.String()
}
