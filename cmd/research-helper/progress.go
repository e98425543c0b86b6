package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/mikeboe/hyperlex/pkg/research"
)

// progressPrinter echoes the growth of a section as the engine reports it.
type progressPrinter struct {
	out io.Writer

	mu           sync.Mutex
	index        int
	sourcesShown bool
	done         bool
	reasoning    int
	response     int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, index: -1}
}

func (p *progressPrinter) update(index int, cs research.ChatSection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A fresh submission may reuse the index of a finished one after a clear.
	fresh := cs.IsLoadingSources && cs.Response == "" && cs.Reasoning == ""
	switch {
	case index != p.index || (p.done && fresh):
		if !fresh {
			// a toggle or other edit of an older section
			return
		}
		p.start(index)
	case p.done:
		return
	}

	if !p.sourcesShown && !cs.IsLoadingSources && len(cs.SearchResults) > 0 {
		p.sourcesShown = true
		fmt.Fprintf(p.out, "Found %d sources. Analyzing...\n", len(cs.SearchResults))
	}

	if len(cs.Reasoning) > p.reasoning && !cs.IsReasoningCollapsed {
		if p.reasoning == 0 {
			fmt.Fprint(p.out, "\n[reasoning] ")
		}
		fmt.Fprint(p.out, cs.Reasoning[p.reasoning:])
		p.reasoning = len(cs.Reasoning)
	}

	if len(cs.Response) > p.response {
		if p.response == 0 {
			fmt.Fprint(p.out, "\n\n")
		}
		fmt.Fprint(p.out, cs.Response[p.response:])
		p.response = len(cs.Response)
	}

	if !p.done && !cs.Loading() {
		p.done = true
		fmt.Fprintln(p.out)
	}
}

func (p *progressPrinter) start(index int) {
	p.index = index
	p.sourcesShown = false
	p.done = false
	p.reasoning = 0
	p.response = 0
	fmt.Fprintln(p.out, "Searching the web...")
}

// reset forgets the tracked section, for when the conversation is cleared.
func (p *progressPrinter) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = -1
	p.done = false
}
