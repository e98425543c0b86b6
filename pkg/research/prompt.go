package research

import (
	"fmt"
	"strings"
)

// excerptLength bounds the description column of the sources table.
const excerptLength = 150

const analysisAcknowledgement = "I found some relevant information. Let me analyze it and create a comprehensive report."

const analysisGuidelines = `## Analysis Guidelines:
1. Start with a brief <h2>**Executive Summary**</h2> (2-3 sentences)
2. Provide <h2>**Detailed Analysis**</h2> with clear section headings
3. Include relevant statistics and data points from sources
4. Highlight key trends and developments
5. Address potential impacts and implications
6. Consider multiple perspectives and stakeholder views
7. Note any limitations or biases in the source material

## Requirements:
- Use [Source X] citations when referencing specific information
- Maintain a neutral, analytical tone
- Organize information in a clear, logical structure with <h2> headings for each major section
- Highlight any conflicting information between sources
- Include direct quotes when particularly relevant

## Response Format Requirements:
- Provide clear explanations before code examples
- Format code using markdown code blocks with language specification
- Include comments in code examples
- Explain key concepts before showing implementation

## IMPORTANT:
1. End your response with a <h2>**Key Takeaways**</h2> section
2. Follow with a sources table listing all references used, formatted exactly as shown below:`

// ContextualQuery is the query sent to the search collaborator. It carries the
// previous query so follow-up questions stay on topic.
func ContextualQuery(priorQuery, query string) string {
	if priorQuery == "" {
		return query
	}
	return fmt.Sprintf("Previous query was about: \"%s\"\nNew query: %s", priorQuery, query)
}

// BuildPrompt renders the analysis request for the model. Sources are numbered
// from 1 in the order they were received; citations in the answer refer to
// those numbers.
func BuildPrompt(priorQuery, query string, resp *SearchResponse) (string, error) {
	if resp == nil || len(resp.Results) == 0 {
		return "", ErrNoResults
	}

	var b strings.Builder

	b.WriteString("Previous Context: ")
	if priorQuery != "" {
		fmt.Fprintf(&b, "The previous query was about \"%s\".\n", priorQuery)
	} else {
		b.WriteString("This is a new conversation.\n")
	}

	b.WriteString("Here is the research data:")
	if resp.Answer != "" {
		fmt.Fprintf(&b, "\nTavily's Direct Answer: %s\n\n", resp.Answer)
	}
	b.WriteString("\n")

	sources := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		sources[i] = fmt.Sprintf("[Source %d]: %s\n%s\nURL: %s\n", i+1, r.Title, r.Content, r.URL)
	}
	b.WriteString(strings.Join(sources, "\n\n"))

	fmt.Fprintf(&b, "\n\n# Analysis Request: \"%s\"\n\n", query)
	b.WriteString(analysisGuidelines)
	b.WriteString(SourcesTable(resp.Results))

	return b.String(), nil
}

// SourcesTable lists every source as a Markdown table row.
func SourcesTable(results []SearchResult) string {
	var b strings.Builder
	b.WriteString("\n\n## Sources\n| Number | Source | Description |\n|---------|---------|-------------|\n")

	rows := make([]string, len(results))
	for i, r := range results {
		rows[i] = fmt.Sprintf("| %d | [%s](%s) | %s |", i+1, r.Title, r.URL, excerpt(r))
	}
	b.WriteString(strings.Join(rows, "\n"))
	return b.String()
}

func excerpt(r SearchResult) string {
	runes := []rune(r.Content)
	text := r.Snippet
	if text == "" {
		text = string(runes[:min(len(runes), excerptLength)])
	}
	if len(runes) > excerptLength {
		text += "..."
	}
	return text
}

// AnalysisMessages builds the model context for one submission.
func AnalysisMessages(query, prompt string) []Message {
	return []Message{
		{Role: RoleUser, Content: query},
		{Role: RoleAssistant, Content: analysisAcknowledgement},
		{Role: RoleUser, Content: prompt},
	}
}
