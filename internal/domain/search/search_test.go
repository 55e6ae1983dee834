package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragment(t *testing.T) {
	resp := &Response{
		Query:  "pomodoro timer apps",
		Answer: "Popular options include Forest and Focus To-Do.",
		Result: []Result{
			{Title: "Forest", Link: "https://forestapp.cc", Snippet: "Stay focused, be present."},
			{Title: "", Link: "https://skip.me"},
			{Title: "Focus To-Do", Link: "https://focustodo.cn"},
			{Title: "Third", Link: "https://third.example"},
		},
	}

	got := Fragment(resp, 2)
	assert.Equal(t, "Popular options include Forest and Focus To-Do.\n\n"+
		"Here's what I found for \"pomodoro timer apps\":\n"+
		"- [Forest](https://forestapp.cc): Stay focused, be present.\n"+
		"- [Focus To-Do](https://focustodo.cn)", got)
}

func TestFragment_Empty(t *testing.T) {
	assert.Empty(t, Fragment(nil, 5))
	assert.Empty(t, Fragment(&Response{Query: "nothing"}, 5))
	assert.Equal(t, "Just an answer", Fragment(&Response{Answer: " Just an answer "}, 5))
}
