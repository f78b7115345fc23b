package observability

import (
	"context"
	"time"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/metrics"
)

// RequestSpan times one language-server request.
type RequestSpan struct {
	ctx       context.Context
	method    string
	startTime time.Time
	recorder  metrics.Recorder
	now       func() time.Time
}

// StartRequestSpan starts timing a request and tags ctx with its method.
func StartRequestSpan(ctx context.Context, recorder metrics.Recorder, method string) (context.Context, *RequestSpan) {
	ctx = WithMethod(ctx, method)
	span := &RequestSpan{
		ctx:       ctx,
		method:    method,
		startTime: time.Now(),
		recorder:  metrics.OrNoop(recorder),
		now:       time.Now,
	}
	DebugContext(ctx, "Request started")
	return ctx, span
}

// End records the request's duration and outcome.
func (s *RequestSpan) End(err error) {
	if s == nil {
		return
	}
	duration := s.now().Sub(s.startTime)
	result := ResultFor(s.ctx, err)
	s.recorder.ObserveRequestDuration(s.method, duration)
	s.recorder.IncRequestResult(s.method, result)

	if result == metrics.ResultError {
		ErrorContext(s.ctx, "Request failed", logfields.DurationMS(float64(duration.Microseconds())/1000), logfields.Error(err))
		return
	}
	DebugContext(s.ctx, "Request finished",
		logfields.DurationMS(float64(duration.Microseconds())/1000),
		logfields.Result(string(result)))
}

// ResultFor classifies a request outcome.
func ResultFor(ctx context.Context, err error) metrics.ResultLabel {
	switch {
	case ctx.Err() != nil:
		return metrics.ResultCanceled
	case err == nil:
		return metrics.ResultSuccess
	case mdlserrors.HasCategory(err, mdlserrors.CategoryRename):
		return metrics.ResultUnsupported
	default:
		return metrics.ResultError
	}
}
