// Package render turns finished chat sections into terminal output.
package render

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/mikeboe/hyperlex/pkg/research"
)

var sourceMarker = regexp.MustCompile(`\[Source (\d+)\]`)

// Citation is one "[Source N]" marker found in a response.
type Citation struct {
	Marker string
	Number int
	// Index is Number-1, the position in the section's search results.
	Index int
	// Result is nil when the marker points past the available results.
	Result *research.SearchResult
}

// Citations lists every source marker in order of appearance.
func Citations(response string, results []research.SearchResult) []Citation {
	matches := sourceMarker.FindAllStringSubmatch(response, -1)
	citations := make([]Citation, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		c := Citation{Marker: m[0], Number: n, Index: n - 1}
		if c.Index >= 0 && c.Index < len(results) {
			c.Result = &results[c.Index]
		}
		citations = append(citations, c)
	}
	return citations
}

// LinkCitations rewrites resolvable markers as Markdown links. Markers that do
// not resolve are left untouched.
func LinkCitations(response string, results []research.SearchResult) string {
	return sourceMarker.ReplaceAllStringFunc(response, func(marker string) string {
		m := sourceMarker.FindStringSubmatch(marker)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(results) || results[n-1].URL == "" {
			return marker
		}
		return fmt.Sprintf("[[%d]](%s)", n, results[n-1].URL)
	})
}
