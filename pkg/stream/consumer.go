package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// DefaultReadSize is the buffer handed to each Read call.
const DefaultReadSize = 32 * 1024

// Update is published after every applied delta. Reasoning and Content hold
// the full accumulators, not just the fragment.
type Update struct {
	Delta           Delta
	Reasoning       string
	Content         string
	ThinkingStarted bool
}

// Result summarises a finished consumption.
type Result struct {
	Reasoning string
	Content   string
	Records   int
	Skipped   int
}

// UpdateFunc receives each update. Returning an error stops consumption.
type UpdateFunc func(Update) error

// Consumer turns a byte stream of newline-delimited records into growing
// reasoning and content strings.
//
// Each Read result is split on newlines independently. A record that spans two
// reads fails to decode on both halves and is dropped.
type Consumer struct {
	Logger   *slog.Logger
	ReadSize int
}

func NewConsumer(logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{Logger: logger, ReadSize: DefaultReadSize}
}

// Consume reads r until EOF, ctx is cancelled, or fn returns an error.
// The returned Result reflects everything applied so far, even on error.
func (c *Consumer) Consume(ctx context.Context, r io.Reader, fn UpdateFunc) (Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := c.ReadSize
	if size <= 0 {
		size = DefaultReadSize
	}

	var (
		reasoning strings.Builder
		content   strings.Builder
		res       Result
		thinking  bool
	)
	snapshot := func() Result {
		res.Reasoning = reasoning.String()
		res.Content = content.String()
		return res
	}

	buf := make([]byte, size)
	for {
		if err := ctx.Err(); err != nil {
			return snapshot(), err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			for _, line := range bytes.Split(buf[:n], []byte("\n")) {
				line = bytes.TrimSpace(line)
				if len(line) == 0 {
					continue
				}

				delta, err := Decode(line)
				if err != nil {
					res.Skipped++
					logger.Warn("Skipping malformed stream record", "error", err, "bytes", len(line))
					continue
				}

				switch d := delta.(type) {
				case ReasoningDelta:
					reasoning.WriteString(d.Text)
					thinking = true
				case ContentDelta:
					content.WriteString(d.Text)
				default:
					res.Skipped++
					logger.Debug("Skipping stream record without delta", "raw", d.(UnknownDelta).Raw)
					continue
				}
				res.Records++

				if err := ctx.Err(); err != nil {
					return snapshot(), err
				}
				if fn != nil {
					err := fn(Update{
						Delta:           delta,
						Reasoning:       reasoning.String(),
						Content:         content.String(),
						ThinkingStarted: thinking,
					})
					if err != nil {
						return snapshot(), err
					}
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return snapshot(), nil
			}
			// a cancelled request surfaces as a read error; report the cause
			if ctxErr := ctx.Err(); ctxErr != nil {
				return snapshot(), ctxErr
			}
			return snapshot(), readErr
		}
	}
}
