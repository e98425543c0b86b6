// Package stream decodes and encodes the newline-delimited JSON records a chat
// completion endpoint streams back, and assembles them into the reasoning and
// content accumulators of a single response.
package stream

import (
	"encoding/json"
	"fmt"
)

// Delta is one incremental fragment of model output. It is one of
// ReasoningDelta, ContentDelta or UnknownDelta.
type Delta interface {
	isDelta()
}

// ReasoningDelta is a fragment of the model's reasoning trace.
type ReasoningDelta struct {
	Text string
}

// ContentDelta is a fragment of the final answer.
type ContentDelta struct {
	Text string
}

// UnknownDelta is a well-formed record that carries neither field.
type UnknownDelta struct {
	Raw string
}

func (ReasoningDelta) isDelta() {}
func (ContentDelta) isDelta()   {}
func (UnknownDelta) isDelta()   {}

// record mirrors the upstream wire shape:
// {"choices":[{"delta":{"content":"...","reasoning_content":"..."}}]}
type record struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Delta wireDelta `json:"delta"`
}

type wireDelta struct {
	Content          string `json:"content,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// Decode validates a single line at the boundary. A reasoning fragment takes
// precedence over a content fragment in the same record.
func Decode(line []byte) (Delta, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stream record: %w", err)
	}

	if len(rec.Choices) == 0 {
		return UnknownDelta{Raw: string(line)}, nil
	}

	d := rec.Choices[0].Delta
	switch {
	case d.ReasoningContent != "":
		return ReasoningDelta{Text: d.ReasoningContent}, nil
	case d.Content != "":
		return ContentDelta{Text: d.Content}, nil
	default:
		return UnknownDelta{Raw: string(line)}, nil
	}
}

// Encode renders a delta as one wire record terminated by a newline.
func Encode(d Delta) ([]byte, error) {
	var wd wireDelta
	switch v := d.(type) {
	case ReasoningDelta:
		wd.ReasoningContent = v.Text
	case ContentDelta:
		wd.Content = v.Text
	default:
		return nil, fmt.Errorf("cannot encode delta of type %T", d)
	}

	data, err := json.Marshal(record{Choices: []choice{{Delta: wd}}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stream record: %w", err)
	}
	return append(data, '\n'), nil
}
