package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mikeboe/hyperlex/pkg/research"
)

// Renderer formats sections as Markdown and renders them with glamour.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer honors NO_COLOR the same way the rest of the terminal output does.
func NewRenderer(width int) (*Renderer, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if os.Getenv("NO_COLOR") != "" {
		opts = append(opts, glamour.WithStylePath("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}

	term, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{term: term}, nil
}

// Render returns the section as styled terminal text. If glamour fails the
// raw Markdown is returned.
func (r *Renderer) Render(section research.ChatSection) string {
	md := Markdown(section)
	if r == nil || r.term == nil {
		return md
	}
	out, err := r.term.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Markdown builds the Markdown document for a section.
func Markdown(section research.ChatSection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", section.Query)

	if section.Reasoning != "" {
		if section.IsReasoningCollapsed {
			b.WriteString("_Reasoning hidden_\n\n")
		} else {
			b.WriteString("## Reasoning\n\n")
			for _, line := range strings.Split(strings.TrimSpace(section.Reasoning), "\n") {
				fmt.Fprintf(&b, "> %s\n", line)
			}
			b.WriteString("\n")
		}
	}

	if section.Response != "" {
		b.WriteString(LinkCitations(section.Response, section.SearchResults))
		b.WriteString("\n\n")
	}

	if section.Error != nil {
		fmt.Fprintf(&b, "**Error:** %s\n\n", *section.Error)
	}

	if len(section.SearchResults) > 0 {
		b.WriteString("## Sources\n\n")
		for i, result := range section.SearchResults {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, result.Title, result.URL)
		}
	}

	return b.String()
}
