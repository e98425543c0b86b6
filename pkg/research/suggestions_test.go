package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySuggestion(t *testing.T) {
	s, ok := FindSuggestion("tech news & updates")
	require.True(t, ok)

	assert.Equal(t, s.Prefix, ApplySuggestion(s, ""))
	assert.Equal(t, "Summarize the latest developments in India Tech. AI chips", ApplySuggestion(s, "AI chips"))

	_, ok = FindSuggestion("Sports")
	assert.False(t, ok)
}
