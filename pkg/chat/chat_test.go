package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"

	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/stream"
)

// fakeModel streams the configured chunks through the streaming callback.
type fakeModel struct {
	chunks   []string
	err      error
	received []llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.received = messages
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	var full strings.Builder
	for _, c := range m.chunks {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		full.WriteString(c)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: full.String()}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

func TestToMessageContentRoles(t *testing.T) {
	content := ToMessageContent([]research.Message{
		{Role: research.RoleUser, Content: "q"},
		{Role: research.RoleAssistant, Content: "a"},
		{Role: "system", Content: "s"},
	})
	require.Len(t, content, 3)
	assert.Equal(t, llms.ChatMessageTypeHuman, content[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, content[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, content[2].Role)
	assert.Equal(t, llms.TextContent{Text: "q"}, content[0].Parts[0])
}

func TestServiceStreamsDecodableRecords(t *testing.T) {
	model := &fakeModel{chunks: []string{"Hel", "", "lo"}}
	svc := NewService(NewLangchainProvider(model))

	var out flushRecorder
	n, err := svc.Stream(context.Background(), &out, []research.Message{{Role: research.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, out.flushes)
	assert.Len(t, model.received, 1)

	res, err := stream.NewConsumer(nil).Consume(context.Background(), &out.Buffer, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Content)
	assert.Empty(t, res.Reasoning)
}

func TestServiceReportsRecordsWrittenBeforeFailure(t *testing.T) {
	boom := errors.New("upstream closed")
	svc := NewService(NewLangchainProvider(&fakeModel{chunks: []string{"partial"}, err: boom}))

	var out bytes.Buffer
	n, err := svc.Stream(context.Background(), &out, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Contains(t, out.String(), "partial")
}

func TestPartDeltas(t *testing.T) {
	deltas := PartDeltas([]*genai.Part{
		{Text: "pondering", Thought: true},
		nil,
		{Text: ""},
		{Text: "answer"},
	})
	assert.Equal(t, []stream.Delta{
		stream.ReasoningDelta{Text: "pondering"},
		stream.ContentDelta{Text: "answer"},
	}, deltas)
}

func TestPartialFilter(t *testing.T) {
	var f PartialFilter

	// aggregated event after partials is dropped
	assert.True(t, f.Keep(true))
	assert.True(t, f.Keep(true))
	assert.False(t, f.Keep(false))

	// a lone final event is kept
	assert.True(t, f.Keep(false))
}
