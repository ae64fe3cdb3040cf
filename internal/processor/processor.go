package processor

import (
	"context"
	"errors"
	"log/slog"

	"timeline-editor/internal/timeline"

	"github.com/google/uuid"
)

var (
	// ErrNoSegments is returned by Process when called with an empty segment list.
	// Callers must use Placeholder instead.
	ErrNoSegments = errors.New("no keep segments to process")

	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
)

// Processor turns a source media locator and its keep-segments into processed output.
// A call is one opaque unit of work; implementations must honour ctx cancellation.
type Processor interface {
	// Process concatenates segments of the media at locator and returns the output locator.
	Process(ctx context.Context, locator string, segments []timeline.KeepSegment) (string, error)

	// Placeholder produces a minimal blank output for a history that resolved to nothing.
	Placeholder(ctx context.Context, locator string) (string, error)
}

// Stub logs requests and returns synthetic locators. Used when no ffmpeg is installed.
type Stub struct {
	logger *slog.Logger
}

// NewStub returns a Stub that logs to logger.
func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger}
}

func (s *Stub) Process(ctx context.Context, locator string, segments []timeline.KeepSegment) (string, error) {
	if len(segments) == 0 {
		return "", ErrNoSegments
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := "stub://" + uuid.NewString()
	s.logger.Info("processor stub: process requested",
		"locator", locator,
		"segments", len(segments),
		"kept_seconds", timeline.TotalLength(segments),
		"output", out)
	return out, nil
}

func (s *Stub) Placeholder(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := "stub://placeholder/" + uuid.NewString()
	s.logger.Info("processor stub: placeholder requested", "locator", locator, "output", out)
	return out, nil
}
