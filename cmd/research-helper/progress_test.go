package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikeboe/hyperlex/pkg/research"
)

func TestProgressPrinterStreamsASubmission(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)

	p.update(0, research.ChatSection{Query: "q", IsLoadingSources: true})
	p.update(0, research.ChatSection{Query: "q", SearchResults: []research.SearchResult{{Title: "a"}, {Title: "b"}}, IsLoadingThinking: true})
	p.update(0, research.ChatSection{Query: "q", Reasoning: "think", IsLoadingThinking: false})
	p.update(0, research.ChatSection{Query: "q", Reasoning: "think", Response: "ans"})
	p.update(0, research.ChatSection{Query: "q", Reasoning: "think", Response: "answer"})

	got := out.String()
	assert.Contains(t, got, "Searching the web...")
	assert.Contains(t, got, "Found 2 sources. Analyzing...")
	assert.Contains(t, got, "[reasoning] think")
	assert.Contains(t, got, "answer")
	assert.Equal(t, 1, strings.Count(got, "answer"))
}

func TestProgressPrinterFollowsSubmissionAfterClear(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)

	p.update(0, research.ChatSection{Query: "old", IsLoadingSources: true})
	p.update(0, research.ChatSection{Query: "old", Response: "old answer"})

	p.reset()
	out.Reset()

	p.update(0, research.ChatSection{Query: "new", IsLoadingSources: true})
	p.update(0, research.ChatSection{Query: "new", Response: "streamed text", IsLoadingThinking: true})

	assert.Contains(t, out.String(), "Searching the web...")
	assert.Contains(t, out.String(), "streamed text")
}

func TestProgressPrinterFollowsReusedIndexWithoutReset(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)

	p.update(0, research.ChatSection{Query: "old", IsLoadingSources: true})
	p.update(0, research.ChatSection{Query: "old", Response: "old answer"})
	out.Reset()

	p.update(0, research.ChatSection{Query: "new", IsLoadingSources: true})
	p.update(0, research.ChatSection{Query: "new", Response: "fresh", IsLoadingThinking: true})

	assert.Contains(t, out.String(), "Searching the web...")
	assert.Contains(t, out.String(), "fresh")
}

func TestProgressPrinterIgnoresEditsOfOlderSections(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)

	p.update(3, research.ChatSection{Query: "older", Reasoning: "r", Response: "done", IsReasoningCollapsed: true})

	assert.Empty(t, out.String())
}
