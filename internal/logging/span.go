package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one operation, such as a delayed task or a generation poll loop.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	err    error
}

// StartSpan derives a child span from ctx. The returned context carries a
// logger annotated with trace_id, span_id and, when nested, parent_span_id.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	parent := traceFromContext(ctx)

	ids := traceIDs{trace: parent.trace, span: uuid.NewString()}
	if ids.trace == "" {
		ids.trace = uuid.NewString()
		logger = logger.With(slog.String("trace_id", ids.trace))
	}

	logger = logger.With(slog.String("span_id", ids.span), slog.String("span_name", name))
	if parent.span != "" {
		logger = logger.With(slog.String("parent_span_id", parent.span))
	}

	ctx = WithLogger(withTrace(ctx, ids), logger)
	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// Fail records err so End reports the span as failed.
func (s *Span) Fail(err error) {
	if s != nil && err != nil {
		s.err = err
	}
}

// End emits the completion entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if s.err != nil {
		s.logger.Warn("span failed", elapsed, slog.String("error", s.err.Error()))
		return
	}
	s.logger.Debug("span completed", elapsed)
}
