package research

import "strings"

// Suggestion is a canned query prefix offered before the first submission.
type Suggestion struct {
	Label  string `json:"label"`
	Prefix string `json:"prefix"`
}

var Suggestions = []Suggestion{
	{
		Label:  "Tech News & Updates",
		Prefix: "Summarize the latest developments in India Tech. ",
	},
	{
		Label:  "Indian Politics",
		Prefix: "Analyze recent political events in India regarding. ",
	},
	{
		Label:  "Financial Markets",
		Prefix: "Provide insights on Indian financial markets, focusing on: current economic conditions, industry trends, and geopolitical events in India. ",
	},
	{
		Label:  "Startup News",
		Prefix: "Research and summarize recent developments about Indian startups in: AI fintech, blockchain, or digital transformation.  ",
	},
	{
		Label:  "Global Tech Trends",
		Prefix: "Analyze global technology trends and their impact on India.",
	},
	{
		Label:  "Market Analysis",
		Prefix: "Create a detailed market analysis for the Indian.",
	},
}

// FindSuggestion matches a label case-insensitively.
func FindSuggestion(label string) (Suggestion, bool) {
	for _, s := range Suggestions {
		if strings.EqualFold(s.Label, strings.TrimSpace(label)) {
			return s, true
		}
	}
	return Suggestion{}, false
}

// ApplySuggestion prepends the suggestion prefix to whatever is already typed.
func ApplySuggestion(s Suggestion, input string) string {
	return s.Prefix + input
}
