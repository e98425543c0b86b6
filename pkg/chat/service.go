package chat

import (
	"context"
	"io"
	"log/slog"

	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/stream"
)

type flusher interface {
	Flush()
}

// Service writes a provider's deltas as newline-delimited records.
type Service struct {
	Provider Provider
	Logger   *slog.Logger
}

func NewService(provider Provider) *Service {
	return &Service{Provider: provider, Logger: slog.Default()}
}

// Stream writes one record per delta and flushes after each when w supports
// it. It returns the number of records written so callers can tell whether
// the response has already started.
func (s *Service) Stream(ctx context.Context, w io.Writer, messages []research.Message) (int, error) {
	written := 0
	err := s.Provider.Stream(ctx, messages, func(d stream.Delta) error {
		data, err := stream.Encode(d)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if f, ok := w.(flusher); ok {
			f.Flush()
		}
		written++
		return nil
	})
	if err != nil {
		s.Logger.Error("Chat stream failed", "error", err, "records", written)
		return written, err
	}
	s.Logger.Info("Chat stream completed", "records", written)
	return written, nil
}
