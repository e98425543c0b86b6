package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/hyperlex/pkg/research"
)

var results = []research.SearchResult{
	{Title: "One", URL: "https://one.example"},
	{Title: "Two", URL: "https://two.example"},
	{Title: "Three", URL: "https://three.example"},
}

func TestCitations(t *testing.T) {
	citations := Citations("Chips [Source 3] and phones [Source 1], see [Source 9].", results)
	require.Len(t, citations, 3)

	assert.Equal(t, "[Source 3]", citations[0].Marker)
	assert.Equal(t, 2, citations[0].Index)
	require.NotNil(t, citations[0].Result)
	assert.Equal(t, "https://three.example", citations[0].Result.URL)

	assert.Equal(t, 0, citations[1].Index)
	assert.Equal(t, "One", citations[1].Result.Title)

	assert.Equal(t, 9, citations[2].Number)
	assert.Nil(t, citations[2].Result)
}

func TestLinkCitations(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"in range", "See [Source 2].", "See [[2]](https://two.example)."},
		{"out of range", "See [Source 4].", "See [Source 4]."},
		{"zero", "See [Source 0].", "See [Source 0]."},
		{"none", "Plain text", "Plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LinkCitations(tt.response, results))
		})
	}
}

func TestMarkdown(t *testing.T) {
	failed := "Failed to generate report. Please try again."
	section := research.ChatSection{
		Query:         "Tech News",
		SearchResults: results[:1],
		Reasoning:     "step one\nstep two",
		Response:      "Answer [Source 1]",
		Error:         &failed,
	}

	md := Markdown(section)
	assert.Contains(t, md, "# Tech News")
	assert.Contains(t, md, "> step one\n> step two")
	assert.Contains(t, md, "Answer [[1]](https://one.example)")
	assert.Contains(t, md, "**Error:** "+failed)
	assert.Contains(t, md, "1. [One](https://one.example)")

	section.IsReasoningCollapsed = true
	md = Markdown(section)
	assert.NotContains(t, md, "step one")
	assert.Contains(t, md, "_Reasoning hidden_")
}

func TestRendererFallsBackWithoutTerm(t *testing.T) {
	var r *Renderer
	section := research.ChatSection{Query: "q", Response: "r"}
	assert.Equal(t, Markdown(section), r.Render(section))
}
